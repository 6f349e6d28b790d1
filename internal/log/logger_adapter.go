package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// logrusAdapter implements Logger on a logrus entry. Each With* call
// returns a new adapter; the parent is left untouched.
type logrusAdapter struct {
	entry *logrus.Entry
}

func newLogrusAdapter(cfg *LoggerConfig, out io.Writer) (Logger, error) {
	pattern, timeLayout := cfg.Pattern, cfg.Time
	if pattern == "" {
		pattern = DefaultPattern
	}
	if timeLayout == "" {
		timeLayout = DefaultTime
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	l := logrus.New()
	l.SetFormatter(&formatter{
		pattern: pattern,
		time:    timeLayout,
	})
	l.SetLevel(level)
	l.SetReportCaller(cfg.Caller)
	l.SetOutput(out)

	return &logrusAdapter{
		entry: logrus.NewEntry(l),
	}, nil
}

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) enabled(level logrus.Level) bool { return l.entry.Logger.IsLevelEnabled(level) }

func (l *logrusAdapter) IsTraceEnabled() bool { return l.enabled(logrus.TraceLevel) }
func (l *logrusAdapter) IsDebugEnabled() bool { return l.enabled(logrus.DebugLevel) }
func (l *logrusAdapter) IsInfoEnabled() bool  { return l.enabled(logrus.InfoLevel) }
