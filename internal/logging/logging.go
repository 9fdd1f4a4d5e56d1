// Package logging builds the process-wide slog logger from LOG_FORMAT and LOG_LEVEL.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a text or JSON slog.Logger writing to w at the named level.
// Unknown levels fall back to info and unknown formats to text.
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup installs New(...) as the slog default and returns it.
func Setup(w io.Writer, format, level string) *slog.Logger {
	logger := New(w, format, level)
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
