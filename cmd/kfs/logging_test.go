package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTextSink(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	})
}

type failingHandler struct {
	slog.Handler
}

var errSink = errors.New("sink failed")

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errSink }

func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h failingHandler) WithGroup(string) slog.Handler { return h }

// TestSlogManager_Success_FanOut verifies records reach every sink that
// accepts their level.
func TestSlogManager_Success_FanOut(t *testing.T) {
	t.Parallel()

	var info, warn bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("info", newTextSink(&info, slog.LevelInfo))
	m.AddHandler("warn", newTextSink(&warn, slog.LevelWarn))

	logger := slog.New(m)
	logger.Debug("hidden")
	logger.Info("saved", "bytes", 12)
	logger.Warn("slow")

	assert.Equal(t, "level=INFO msg=saved bytes=12\nlevel=WARN msg=slow\n", info.String())
	assert.Equal(t, "level=WARN msg=slow\n", warn.String())
	assert.False(t, m.Enabled(context.Background(), slog.LevelDebug))
}

// TestSlogManager_Success_Derived verifies attributes and groups keep their
// order and follow sink changes.
func TestSlogManager_Success_Derived(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("sink", newTextSink(&first, slog.LevelInfo))

	logger := slog.New(m).With("a", 1).WithGroup("g").With("b", 2)
	logger.Info("one", "c", 3)

	m.AddHandler("sink", newTextSink(&second, slog.LevelInfo))
	logger.Info("two")

	assert.Equal(t, "level=INFO msg=one a=1 g.b=2 g.c=3\n", first.String())
	assert.Equal(t, "level=INFO msg=two a=1 g.b=2\n", second.String())
}

// TestSlogManager_Success_Remove verifies removed sinks stop receiving
// records.
func TestSlogManager_Success_Remove(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("sink", newTextSink(&buf, slog.LevelInfo))

	logger := slog.New(m)
	logger.Info("kept")

	m.RemoveHandler("sink")
	logger.Info("dropped")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.False(t, m.Enabled(context.Background(), slog.LevelError))
}

// TestSlogManager_Fail_Sink verifies sink errors are joined and do not stop
// the other sinks.
func TestSlogManager_Fail_Sink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("ok", newTextSink(&buf, slog.LevelInfo))
	m.AddHandler("bad", failingHandler{})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	err := m.Handle(context.Background(), r)

	require.ErrorIs(t, err, errSink)
	assert.Contains(t, buf.String(), "msg=msg")
}
