package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a JSON logger for a function, honoring LOG_LEVEL.
func New(service string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter is New with an explicit destination and level string.
func NewWithWriter(w io.Writer, service, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", service)
}

// Init installs the service logger as the slog default.
func Init(service string) *slog.Logger {
	l := New(service)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps debug/warn/error to slog levels; anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
