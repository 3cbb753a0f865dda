// Package logging installs a zerolog console logger behind log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

// ParseLevel maps a zerolog level name to the slog level of the same severity.
// An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	switch lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return slog.LevelDebug, nil
	case zerolog.InfoLevel, zerolog.NoLevel:
		return slog.LevelInfo, nil
	case zerolog.WarnLevel:
		return slog.LevelWarn, nil
	default:
		return slog.LevelError, nil
	}
}

// New returns a slog logger writing human readable lines to w.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Stamp, NoColor: !color}
	log := zerolog.New(output).With().Timestamp().Logger()
	return slog.New(zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}))
}

// Setup parses level, builds the logger and makes it the slog default.
func Setup(w io.Writer, level string, color bool) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := New(w, lvl, color)
	slog.SetDefault(logger)
	return logger, nil
}
