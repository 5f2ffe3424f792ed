package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterStrategy wraps a raw destination into a formatted log writer
type WriterStrategy interface {
	CreateWriter(output io.Writer) io.Writer
}

// JSONWriterStrategy writes zerolog's native JSON lines
type JSONWriterStrategy struct{}

// CreateWriter creates a JSON writer
func (JSONWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return output
}

// ConsoleWriterStrategy writes human readable lines
type ConsoleWriterStrategy struct {
	NoColor bool
}

// CreateWriter creates a console writer
func (s ConsoleWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    s.NoColor,
	}
}

// WriterFactory creates writers based on format
type WriterFactory struct {
	strategies map[LogFormat]WriterStrategy
}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{
		strategies: map[LogFormat]WriterStrategy{
			FormatJSON:    JSONWriterStrategy{},
			FormatConsole: ConsoleWriterStrategy{},
			FormatText:    ConsoleWriterStrategy{NoColor: true},
		},
	}
}

// CreateConsoleWriter creates a writer for an interactive destination
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat, out io.Writer) io.Writer {
	strategy, ok := wf.strategies[format]
	if !ok {
		strategy = ConsoleWriterStrategy{}
	}
	return strategy.CreateWriter(out)
}

// CreateFileWriter creates a rotating file writer. Console format is written
// without color codes.
func (wf *WriterFactory) CreateFileWriter(path string, format LogFormat, maxSizeMB, maxBackups int) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		LocalTime:  true,
		MaxBackups: maxBackups,
	}

	if format == FormatConsole {
		return ConsoleWriterStrategy{NoColor: true}.CreateWriter(rotating), nil
	}
	return wf.CreateConsoleWriter(format, rotating), nil
}
