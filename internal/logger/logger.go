package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Default log settings
const (
	DefaultLogFile       = ""
	DefaultLogFormat     = "console"
	DefaultLogLevel      = "info"
	DefaultMaxLogBackups = 3
	DefaultMaxLogSizeMB  = 100
)

// FileLogConfig defines logging configuration as read from the config file
type FileLogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"min=0"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"min=0"`
}

// NewDefaultFileLogConfig creates default log configuration
func NewDefaultFileLogConfig() FileLogConfig {
	return FileLogConfig{
		LogFile:       DefaultLogFile,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

// LogFormat represents available log formats
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatConsole
	FormatText
)

// String returns string representation of LogFormat
func (lf LogFormat) String() string {
	switch lf {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// ParseFormat maps a config string to a LogFormat, console when unknown
func ParseFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

// ParseLevel maps a config string to a zerolog level
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return parsed, nil
}

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	level      zerolog.Level
	format     LogFormat
	console    io.Writer
	filePath   string
	maxSizeMB  int
	maxBackups int
	factory    *WriterFactory
	err        error
}

// NewLoggerBuilder creates a new logger builder writing to stderr at info level
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		level:      zerolog.InfoLevel,
		format:     FormatConsole,
		console:    os.Stderr,
		maxSizeMB:  DefaultMaxLogSizeMB,
		maxBackups: DefaultMaxLogBackups,
		factory:    NewWriterFactory(),
	}
}

// WithConfig applies the file configuration
func (lb *LoggerBuilder) WithConfig(cfg FileLogConfig) *LoggerBuilder {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		lb.err = err
	}
	lb.level = level
	lb.format = ParseFormat(cfg.LogFormat)
	lb.filePath = cfg.LogFile
	if cfg.MaxLogSizeMB > 0 {
		lb.maxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		lb.maxBackups = cfg.MaxLogBackups
	}
	return lb
}

// WithConsole replaces the console destination, nil disables console output
func (lb *LoggerBuilder) WithConsole(w io.Writer) *LoggerBuilder {
	lb.console = w
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.err != nil {
		return zerolog.Nop(), lb.err
	}

	var writers []io.Writer
	if lb.console != nil {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.format, lb.console))
	}
	if lb.filePath != "" {
		fw, err := lb.factory.CreateFileWriter(lb.filePath, lb.format, lb.maxSizeMB, lb.maxBackups)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, fw)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), fmt.Errorf("no output writers configured")
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(log)
	stdlog.SetFlags(0)

	return log, nil
}

// New creates a logger from the file configuration
func New(cfg FileLogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
