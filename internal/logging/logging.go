// Package logging wraps log/slog with a level-parsing constructor. The
// structured fields logged at commit and truncate boundaries are attached
// by the pager itself.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a structured logger writing to os.Stderr at the given level
// ("debug", "info", "warn", "error"; defaults to "info" on an unrecognized
// value).
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
