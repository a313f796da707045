// Package logging initializes the process-wide structured logger. No
// third-party logging library appears anywhere in this codebase's
// reference stack, so this follows the same slog-based facade used by
// this stack's other services rather than reaching for one.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls the global logger's verbosity and encoding.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // "json" or "text"
}

// Init builds and installs the process-wide logger as the slog default.
// Calling it again replaces the default logger, so callers should call
// it exactly once, from main.
func Init(cfg Config) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
