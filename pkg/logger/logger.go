// Package logger builds slog loggers with consistent defaults for the
// pre-save service: JSON output for production, text for development, and a
// service attribute stamped on every record.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler implementation.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type settings struct {
	level   slog.Level
	format  Format
	output  io.Writer
	service string
}

// Option configures logger creation.
type Option func(*settings)

func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat sets the output format. Panics on unknown formats so a
// misconfigured process fails at startup rather than logging garbage.
func WithFormat(f Format) Option {
	return func(s *settings) {
		switch f {
		case FormatJSON, FormatText:
			s.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithService stamps a service attribute on every record.
func WithService(name string) Option {
	return func(s *settings) { s.service = name }
}

// New creates a logger. Defaults: JSON handler, info level, stdout.
func New(opts ...Option) *slog.Logger {
	s := settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&s)
	}

	handlerOpts := &slog.HandlerOptions{Level: s.level}

	var handler slog.Handler
	switch s.format {
	case FormatText:
		handler = slog.NewTextHandler(s.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(s.output, handlerOpts)
	}

	log := slog.New(handler)
	if s.service != "" {
		log = log.With(slog.String("service", s.service))
	}
	return log
}
