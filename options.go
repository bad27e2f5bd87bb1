package sanelog

import (
	"io"
	"log/slog"
)

type options struct {
	writer  io.Writer
	level   slog.Leveler
	modeVar string
	mode    Mode
	modeSet bool
}

// Option adjusts how New builds the logging facility.
type Option func(*options)

// WithWriter redirects output away from stdout, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithLevel sets the minimum level for both modes.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) { o.level = level }
}

// WithModeVar changes the environment variable inspected by mode detection.
func WithModeVar(name string) Option {
	return func(o *options) { o.modeVar = name }
}

// WithMode forces a mode, skipping environment detection.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
		o.modeSet = true
	}
}
