// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	Environment string
	Level       string
	// Format is auto, console or json. Auto picks console for the local
	// environment and json everywhere else.
	Format string
	// Out defaults to stderr; stdout is reserved for command output.
	Out io.Writer
}

func New(opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse LOG_LEVEL=%q: %w", opts.Level, err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	format, err := resolveFormat(opts.Format, opts.Environment)
	if err != nil {
		return zerolog.Logger{}, err
	}
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "trend-pulse").
		Logger(), nil
}

func resolveFormat(format, environment string) (string, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "", FormatAuto:
		if strings.EqualFold(strings.TrimSpace(environment), "local") {
			return FormatConsole, nil
		}
		return FormatJSON, nil
	case FormatConsole, FormatJSON:
		return normalized, nil
	default:
		return "", fmt.Errorf("LOG_FORMAT must be auto, console or json (got %q)", format)
	}
}
