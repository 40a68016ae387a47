// File: internal/logging/logging.go
// Package logging builds the zerolog loggers shared by all components.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options selects the logger's level and encoding.
type Options struct {
	Level  string    // trace, debug, info, warn, error; empty means info
	Format string    // auto, console or json
	Output io.Writer // defaults to os.Stderr
}

// New returns a logger configured by opts. With Format "auto" the console
// encoder is used only when Output is a terminal.
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	switch opts.Format {
	case "", "auto":
		if isTerminal(out) {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
		}
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: !isTerminal(out)}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", opts.Format)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel maps a level name onto zerolog, treating empty as info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
