// Package sanelog configures logging for web services that run both on
// developer machines and inside Kubernetes. It detects the environment once
// at startup and installs either a colorful console handler (local) or a
// single-line JSON handler whose output is sanitized for the log-shipping
// agent (container).
package sanelog

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

// Logging is the configured facility: the mode decided at construction and
// the handler every named channel routes through. The decision is immutable
// for the process lifetime.
type Logging struct {
	mode Mode
	json *jsonHandler // nil in local mode
	root *slog.Logger
}

// New builds a Logging. Unless WithMode forces one, the mode comes from
// environment detection, computed here exactly once.
func New(opts ...Option) *Logging {
	o := options{
		writer:  os.Stdout,
		level:   slog.LevelInfo,
		modeVar: DefaultModeVar,
	}
	for _, fn := range opts {
		fn(&o)
	}
	mode := o.mode
	if !o.modeSet {
		mode = DetectModeVar(o.modeVar)
	}

	l := &Logging{mode: mode}
	if mode == ModeContainer {
		l.json = newJSONHandler(o.writer, o.level)
		l.root = slog.New(l.json)
		return l
	}
	l.root = slog.New(tint.NewHandler(o.writer, &tint.Options{
		Level:      o.level,
		TimeFormat: time.RFC3339,
		AddSource:  true,
	}))
	return l
}

// Mode reports which mode was selected.
func (l *Logging) Mode() Mode { return l.mode }

// Root returns the unnamed logger.
func (l *Logging) Root() *slog.Logger { return l.root }

// Logger returns a named channel routed through the installed handler. In
// container mode the name becomes the record's logger field and cannot be
// shadowed by attributes; in local mode it renders as a logger=name attr.
func (l *Logging) Logger(name string) *slog.Logger {
	if name == "" {
		return l.root
	}
	if l.json != nil {
		return slog.New(l.json.named(name))
	}
	return l.root.With("logger", name)
}

var (
	setupOnce sync.Once
	installed atomic.Pointer[Logging]
)

// Setup configures the process-wide logging facility. Call it once at boot,
// before the application starts serving; later calls are no-ops returning the
// first result. It installs the selected handler as the slog default, so code
// holding plain slog loggers picks it up too.
func Setup(opts ...Option) *Logging {
	setupOnce.Do(func() {
		l := New(opts...)
		slog.SetDefault(l.root)
		installed.Store(l)
	})
	return installed.Load()
}

// GetLogger returns a named logging channel. Before Setup it falls back to
// the facility default, so early log calls are accepted rather than lost.
func GetLogger(name string) *slog.Logger {
	if l := installed.Load(); l != nil {
		return l.Logger(name)
	}
	return slog.Default().With("logger", name)
}
