// Package clock provides the global uptime counter, the logical clock that
// snapshot ages and autosave intervals are measured in.
package clock

import (
	"context"
	"sync/atomic"
	"time"
)

// TicksPerSecond is the resolution of the uptime counter.
const TicksPerSecond = 1000

// Uptime is a monotonic tick counter.
type Uptime struct {
	ticks atomic.Uint64
}

// NewUptime returns a pointer to a new [Uptime] at zero ticks.
func NewUptime() *Uptime {
	return &Uptime{}
}

// Tick advances the counter by one tick.
func (u *Uptime) Tick() {
	u.ticks.Add(1)
}

// Advance moves the counter n ticks forward.
func (u *Uptime) Advance(n uint64) {
	u.ticks.Add(n)
}

// Ticks returns the current tick count.
func (u *Uptime) Ticks() uint64 {
	return u.ticks.Load()
}

// Duration returns the uptime as a [time.Duration].
func (u *Uptime) Duration() time.Duration {
	return TicksToDuration(u.Ticks())
}

// Run advances the counter in step with wall time, every resolution, until
// ctx is done.
func (u *Uptime) Run(ctx context.Context, resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := uint64(now.Sub(last) * TicksPerSecond / time.Second) //nolint:gosec
			if elapsed == 0 {
				continue
			}
			u.Advance(elapsed)
			last = last.Add(TicksToDuration(elapsed))
		}
	}
}

// TicksToDuration converts a tick count to a [time.Duration].
func TicksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks) * time.Second / TicksPerSecond //nolint:gosec
}

// SecondsToTicks converts whole seconds to a tick count.
func SecondsToTicks(seconds uint64) uint64 {
	return seconds * TicksPerSecond
}
