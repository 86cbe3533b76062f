package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-genie/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"time"`)
}

func TestNewWritesLogFileInTUIMode(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataDir: dir, LogFile: "logs/prompt_genie.log", LogLevel: "info"}

	logger := New(cfg, ModeTUI)
	logger.Info().Msg("started")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "prompt_genie.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")
}

func TestNewWithoutLogFile(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir(), LogLevel: "debug"}

	logger := New(cfg, ModeTUI)
	logger.Debug().Msg("discarded")
	assert.NoError(t, logger.Close())
}
