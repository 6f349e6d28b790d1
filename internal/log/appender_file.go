package log

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppenderOpt configures a rotating log file.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`       // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // files
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`         // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// AddFileAppender adds a lumberjack-rotated file.
func (m *MultiWriter) AddFileAppender(options FileAppenderOpt) (*MultiWriter, error) {
	if options.Filename == "" {
		return m, fmt.Errorf("file appender requires 'filename'")
	}
	writer := &lumberjack.Logger{
		Filename:   options.Filename,
		MaxSize:    options.MaxSize,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAge,
		Compress:   options.Compress,
	}
	return m.Add(writer), nil
}
