package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/config"
)

// Mode selects where log output goes
type Mode int

const (
	// ModeCLI logs to stderr and the log file
	ModeCLI Mode = iota
	// ModeTUI logs to the log file only; stderr belongs to the terminal UI
	ModeTUI
)

// Logger bundles the root logger with the log file it writes to
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Close flushes and closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewWithWriter builds a timestamped logger writing JSON lines to w
func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// New builds the application logger from cfg. If the log file cannot be
// opened, CLI mode falls back to stderr alone and TUI mode discards output;
// the failure is reported through the returned logger.
func New(cfg *config.Config, mode Mode) *Logger {
	level := ParseLevel(cfg.LogLevel)

	var writers []io.Writer
	if mode == ModeCLI {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	file, fileErr := openLogFile(cfg.LogPath())
	if file != nil {
		writers = append(writers, file)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	l := &Logger{Logger: NewWithWriter(w, level), file: file}
	if fileErr != nil {
		l.Warn().Err(fileErr).Msg("file logging disabled")
	}
	return l
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
