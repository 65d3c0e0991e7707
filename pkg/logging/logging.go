// Package logging configures structured logging for log/slog.
//
// Usage:
//
//	logging.Setup(logging.Options{})                         // tint, level from LOG_LEVEL env
//	logging.Setup(logging.Options{Level: "debug"})           // explicit level override
//	logging.Setup(logging.Options{Format: logging.FormatJSON}) // one JSON object per line
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info), used when Options.Level is empty
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the handler built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty reads LOG_LEVEL.
	Level string
	// Format is FormatText (colored tint output) or FormatJSON. Empty means text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// NoColor disables tint colors, for output that is not a terminal.
	NoColor bool
}

// Setup builds a logger from opts and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level := levelFromEnv()
	if opts.Level != "" {
		var err error
		if level, err = ParseLevel(opts.Level); err != nil {
			return nil, err
		}
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
			NoColor:    opts.NoColor,
		})), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func levelFromEnv() slog.Level {
	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
