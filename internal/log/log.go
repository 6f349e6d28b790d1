// Package log provides the process-wide logger, a logrus adapter with a
// pattern formatter and an optional rotating file appender.
package log

import (
	"io"
	"os"
	"sync"
)

// Logger is the structured logger handed to the pipeline and the commands.
// Fields carry the context; messages stay short and constant.
type Logger interface {
	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	mu     sync.RWMutex
	logger Logger
)

// GetLogger returns the global logger, a stderr logger at info level
// until Init is called.
func GetLogger() Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger, _ = newLogrusAdapter(DefaultConfig(), os.Stderr)
	}
	return logger
}

// Init installs the global logger. Only the first call has an effect.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		l, err := New(cfg)
		if err != nil {
			panic(err)
		}
		mu.Lock()
		logger = l
		mu.Unlock()
	})
}

// New builds a logger writing to stderr and, when configured, a file.
// Stdout is left to descriptor output.
func New(cfg *LoggerConfig) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := NewMultiWriter().Add(os.Stderr)
	if cfg.File != nil {
		if _, err := out.AddFileAppender(*cfg.File); err != nil {
			return nil, err
		}
	}
	return newLogrusAdapter(cfg, out)
}

// NewWithWriter builds a logger writing only to w.
func NewWithWriter(cfg *LoggerConfig, w io.Writer) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newLogrusAdapter(cfg, w)
}
