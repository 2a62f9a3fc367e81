package main

import (
	"context"
	"log/slog"
	"os"
	"runtime/pprof"
)

// cpuProfiler writes a CPU profile covering the program's lifetime.
//
//nolint:containedctx
type cpuProfiler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	doneChan chan struct{}
}

// newCPUProfiler starts profiling into path; an empty path disables it.
func newCPUProfiler(ctx context.Context, path string) *cpuProfiler {
	cprof := &cpuProfiler{doneChan: make(chan struct{})}
	cprof.ctx, cprof.cancel = context.WithCancel(ctx)

	go cprof.profile(path)

	return cprof
}

func (cprof *cpuProfiler) profile(path string) {
	defer close(cprof.doneChan)

	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create cpu profile.",
			"path", path,
			"err", err,
		)

		return
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		slog.Error("Could not start cpu profile.",
			"path", path,
			"err", err,
		)

		return
	}
	defer pprof.StopCPUProfile()

	<-cprof.ctx.Done()
}

// Stop ends profiling and waits for the profile to be flushed.
func (cprof *cpuProfiler) Stop() {
	cprof.cancel()
	<-cprof.doneChan
}

// writeHeapProfile writes the heap profile to path; an empty path does
// nothing.
func writeHeapProfile(path string) {
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create heap profile.",
			"path", path,
			"err", err,
		)

		return
	}
	defer f.Close()

	if err := pprof.Lookup("heap").WriteTo(f, 0); err != nil {
		slog.Error("Could not write heap profile.",
			"path", path,
			"err", err,
		)
	}
}
