package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options tunes the logger built by New.
type Options struct {
	// Writer defaults to os.Stderr so stdout stays free for dry-run SQL.
	Writer io.Writer
	// Quiet raises the minimum level to warn regardless of LOG_LEVEL.
	Quiet bool
}

// New constructs a JSON slog logger.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	if opts.Quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "fitbit-export")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
