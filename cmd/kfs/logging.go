package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

const (
	logSinkTerminal = "terminal"
	logSinkUI       = "ui"
)

//nolint:gochecknoglobals
var (
	logOutput io.Writer = os.Stderr
	logLevel            = new(slog.LevelVar)
)

// newTintHandler returns the colored handler used for every sink.
func newTintHandler(w io.Writer, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// setupLogging installs a [SlogManager] writing to the terminal as the
// default logger.
func setupLogging(debug bool) *SlogManager {
	if debug {
		logLevel.Set(slog.LevelDebug)
	}

	logs := NewSlogManager()
	logs.AddHandler(logSinkTerminal, newTintHandler(logOutput, false))
	slog.SetDefault(slog.New(logs))

	return logs
}

// SlogManager is a [slog.Handler] fanning records out to a set of named
// sinks, which can be swapped while the program runs. Derived handlers
// (WithAttrs, WithGroup) share the sink set and replay their attributes and
// groups, in order, onto whatever sinks are current.
type SlogManager struct {
	sinks  *sinkSet
	derive []func(slog.Handler) slog.Handler
}

type sinkSet struct {
	sync.RWMutex
	handlers map[string]slog.Handler
}

// NewSlogManager returns a pointer to a new [SlogManager] without sinks.
func NewSlogManager() *SlogManager {
	return &SlogManager{
		sinks: &sinkSet{handlers: make(map[string]slog.Handler)},
	}
}

func (m *SlogManager) apply(h slog.Handler) slog.Handler {
	for _, fn := range m.derive {
		h = fn(h)
	}

	return h
}

func (m *SlogManager) with(fn func(slog.Handler) slog.Handler) *SlogManager {
	return &SlogManager{
		sinks:  m.sinks,
		derive: append(slices.Clip(m.derive), fn),
	}
}

func (m *SlogManager) Enabled(ctx context.Context, level slog.Level) bool {
	m.sinks.RLock()
	defer m.sinks.RUnlock()

	for _, h := range m.sinks.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *SlogManager) Handle(ctx context.Context, r slog.Record) error {
	m.sinks.RLock()
	defer m.sinks.RUnlock()

	var errs []error

	for _, h := range m.sinks.handlers {
		h = m.apply(h)
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *SlogManager) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return m
	}

	return m.with(func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

func (m *SlogManager) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}

	return m.with(func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}

// AddHandler adds (or replaces) the sink called name.
func (m *SlogManager) AddHandler(name string, handler slog.Handler) {
	m.sinks.Lock()
	defer m.sinks.Unlock()

	m.sinks.handlers[name] = handler
}

// RemoveHandler removes the sink called name.
func (m *SlogManager) RemoveHandler(name string) {
	m.sinks.Lock()
	defer m.sinks.Unlock()

	delete(m.sinks.handlers, name)
}
