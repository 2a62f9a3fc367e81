package main

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// memoryMonitorInterval is the interval at which a [memoryObserver] is updated.
	memoryMonitorInterval = 500 * time.Millisecond
)

// memoryObserver tracks the peak heap size while the tree lives in memory.
type memoryObserver struct {
	sync.RWMutex
	maxHeap  uint64
	gcRuns   uint32
	stopChan chan struct{}
	doneChan chan struct{}
}

// newMemoryObserver returns a pointer to a new [memoryObserver]. The tracking
// is started and needs to be stopped by e.g. deferred calling of
// [memoryObserver.Stop] before program exit.
func newMemoryObserver(ctx context.Context) *memoryObserver {
	obs := &memoryObserver{
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go obs.monitor(ctx)

	return obs
}

// Peak returns the peak recorded heap size and the number of completed
// garbage collections.
func (o *memoryObserver) Peak() (uint64, uint32) {
	o.RLock()
	defer o.RUnlock()

	return o.maxHeap, o.gcRuns
}

// Stop ends the tracking and logs the peak with [slog.Debug].
func (o *memoryObserver) Stop() {
	close(o.stopChan)
	<-o.doneChan

	peak, gcRuns := o.Peak()
	slog.Debug("Memory consumption peaked.",
		"heap", humanize.Bytes(peak),
		"gc", gcRuns,
	)
}

func (o *memoryObserver) sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	o.Lock()
	defer o.Unlock()

	o.maxHeap = max(o.maxHeap, m.HeapAlloc)
	o.gcRuns = m.NumGC
}

func (o *memoryObserver) monitor(ctx context.Context) {
	defer close(o.doneChan)

	ticker := time.NewTicker(memoryMonitorInterval)
	defer ticker.Stop()

	o.sample()

	for {
		select {
		case <-o.stopChan:
			o.sample()

			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sample()
		}
	}
}
