// Package logger sets up the default slog logger.
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Init sets the default logger. Pretty output is colored text, otherwise JSON.
func Init(w io.Writer, level string, pretty bool) {
	slog.SetDefault(slog.New(NewHandler(w, level, pretty)))
}

// NewHandler returns the handler Init installs.
func NewHandler(w io.Writer, level string, pretty bool) slog.Handler {
	lvl := parseLevel(level)
	if pretty {
		return tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen, AddSource: lvl == slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
}

// parseLevel falls back to info for unknown levels.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
