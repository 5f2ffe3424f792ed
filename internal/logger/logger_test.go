package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	log, err := New(NewDefaultFileLogConfig())
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestBuilder_JSONToBuffer(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultFileLogConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsole(&buf).Build()
	require.NoError(t, err)

	log.Debug().Str("component", "test").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestBuilder_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "releasewatch.log")
	cfg := NewDefaultFileLogConfig()
	cfg.LogFile = path
	cfg.LogFormat = "text"

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsole(nil).Build()
	require.NoError(t, err)

	log.Info().Msg("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestBuilder_InvalidLevel(t *testing.T) {
	cfg := NewDefaultFileLogConfig()
	cfg.LogLevel = "loud"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestBuilder_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(nil).Build()
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("something"))
	assert.Equal(t, "console", FormatConsole.String())
}
