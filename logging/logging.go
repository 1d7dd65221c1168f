// Package logging builds the slog.Logger used by every command.
//
// Two formats are supported: "text" renders through charmbracelet/log for
// humans at a terminal, "json" renders one indented JSON object per record
// for piping into files.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Options struct {
	Format    string
	Level     string
	Prefix    string
	AddSource bool
}

// ParseLevel accepts debug, info, warn/warning and error (case-insensitive).
// The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		h := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    opts.AddSource,
			Prefix:          opts.Prefix,
			Level:           charmlog.Level(level),
		})
		return slog.New(h), nil
	case FormatJSON:
		h := NewPrettyJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
		if opts.Prefix != "" {
			h = h.WithAttrs([]slog.Attr{slog.String("component", opts.Prefix)})
		}
		return slog.New(h), nil
	}
	return nil, fmt.Errorf("unknown log format %q", opts.Format)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
