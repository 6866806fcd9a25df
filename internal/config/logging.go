package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the logger for one binary. Human-readable text goes to
// stderr, since stdout carries the MCP transport, and JSON lines are appended
// to cfg.LogFile for later inspection. Every record carries the service name.
// When the file cannot be opened the logger falls back to stderr alone. The
// returned function closes the file.
func SetupLogger(service string, cfg Config) (*slog.Logger, func() error) {
	if cfg.LogFile == "" {
		return newLogger(service, cfg.LogLevel, os.Stderr, nil), noopClose
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := newLogger(service, cfg.LogLevel, os.Stderr, nil)
		logger.Error("log file unavailable, logging to stderr only", "file", cfg.LogFile, "error", err)
		return logger, noopClose
	}

	return newLogger(service, cfg.LogLevel, os.Stderr, file), file.Close
}

// SetupLoggerWithWriters wires both outputs to the given writers.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return newLogger("", level, stderr, file)
}

func newLogger(service string, level slog.Level, stderr, file io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(stderr, opts)
	if file != nil {
		h = slogmulti.Fanout(h, slog.NewJSONHandler(file, opts))
	}

	logger := slog.New(h)
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

func noopClose() error { return nil }
