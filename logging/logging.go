// Package logging builds the zerolog loggers used across the module.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Format selects how log lines are written.
type Format string

const (
	// FormatAuto writes human readable lines to terminals and JSON elsewhere.
	FormatAuto    Format = "auto"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseLevel parses a level name. The empty string means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

// New returns a logger writing to w at level with timestamps.
func New(w io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	tty := isTerminal(w)
	if format == FormatConsole || (format != FormatJSON && tty) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !tty}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithContext returns a context carrying log.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return log.WithContext(ctx)
}

// FromContext returns the logger in ctx, or a disabled logger.
func FromContext(ctx context.Context) zerolog.Logger {
	log := zerolog.Ctx(ctx)
	if log == nil || log.GetLevel() == zerolog.Disabled {
		return zerolog.Nop()
	}
	return *log
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
