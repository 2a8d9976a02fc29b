package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/elee1766/lenschat/src/config"
)

// createLogger returns a tint logger on stderr, or a file logger when the
// configuration names a log file. The file handler is JSON when
// logging.format is "json".
func createLogger(cfg config.LoggingConfig, override string) *slog.Logger {
	levelStr := cfg.Level
	if override != "" {
		levelStr = override
	}
	level := parseLogLevel(levelStr)

	if cfg.File == "" {
		return createCLILogger(level)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return createCLILogger(level)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return createCLILogger(level)
	}
	return slog.New(fileHandler(file, cfg.Format, level))
}

func fileHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// createCLILogger creates a logger for CLI commands that writes to stderr
func createCLILogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
