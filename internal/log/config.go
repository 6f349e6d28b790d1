package log

const (
	DefaultPattern = "%time [%level] %caller: %msg%field%n"
	DefaultTime    = "2006-01-02 15:04:05.000"
)

// LoggerConfig configures the global logger. Console output is always on.
type LoggerConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`
	Pattern string           `mapstructure:"pattern" yaml:"pattern"`
	Time    string           `mapstructure:"time" yaml:"time"`
	Caller  bool             `mapstructure:"caller" yaml:"caller"`
	File    *FileAppenderOpt `mapstructure:"file" yaml:"file,omitempty"`
}

// DefaultConfig logs at info level to the console only.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: DefaultPattern,
		Time:    DefaultTime,
	}
}
