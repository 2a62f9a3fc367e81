package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type saveProvider interface {
	Save() error
}

// Autosaver triggers a save once a fixed number of clock ticks has elapsed
// since the previous attempt. Failed attempts restart the window too, so a
// missing drive is not hammered on every poll.
type Autosaver struct {
	sync.Mutex
	saver    saveProvider
	clock    clockProvider
	interval uint64
	last     uint64

	// OnResult, when set, is called after every attempted save.
	OnResult func(err error)
}

// NewAutosaver returns a pointer to a new [Autosaver] saving every interval
// ticks, counted from the current tick.
func NewAutosaver(saver saveProvider, clock clockProvider, interval uint64) *Autosaver {
	return &Autosaver{
		saver:    saver,
		clock:    clock,
		interval: interval,
		last:     clock.Ticks(),
	}
}

// Poll saves if the interval has elapsed. It reports whether a save was
// attempted, and its error.
func (a *Autosaver) Poll() (bool, error) {
	a.Lock()
	defer a.Unlock()

	if a.interval == 0 {
		return false, nil
	}

	now := a.clock.Ticks()
	if now < a.last || now-a.last < a.interval {
		return false, nil
	}

	err := a.saver.Save()
	a.last = now

	if err != nil {
		slog.Warn("Autosave failed.", "err", err)
	} else {
		slog.Info("Autosaved snapshot.")
	}

	if a.OnResult != nil {
		a.OnResult(err)
	}

	return true, err
}

// Run polls every period until ctx is done.
func (a *Autosaver) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = a.Poll()
		}
	}
}
