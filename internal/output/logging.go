package output

import (
	"io"
	"log/slog"
	"math"
	"strings"
)

// LoggerOptions selects the level and handler for SetupLogger.
type LoggerOptions struct {
	Quiet   bool
	Verbose bool
	Debug   bool
	// Level is used when none of the flags above is set.
	Level string
	// Format is "text" (default) or "json".
	Format string
}

// SetupLogger creates a slog.Logger configured for the given options.
// Output is written to w (typically os.Stderr).
//
// Priority: quiet > debug > verbose > Level > warn
func SetupLogger(opts LoggerOptions, w io.Writer) *slog.Logger {
	var level slog.Level

	switch {
	case opts.Quiet:
		level = slog.Level(math.MaxInt)
	case opts.Debug:
		level = slog.LevelDebug
	case opts.Verbose:
		level = slog.LevelInfo
	default:
		level = ParseLevel(opts.Level)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// ParseLevel maps a config level name to a slog level. Unknown or empty
// names map to warn.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
