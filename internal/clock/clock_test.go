package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestUptime_Success_Manual verifies manual ticking and conversion.
func TestUptime_Success_Manual(t *testing.T) {
	t.Parallel()

	u := NewUptime()
	u.Tick()
	u.Advance(2499)

	assert.Equal(t, uint64(2500), u.Ticks())
	assert.Equal(t, 2500*time.Millisecond, u.Duration())
	assert.Equal(t, uint64(10_000), SecondsToTicks(10))
}

// TestUptime_Success_Run verifies the counter follows wall time and stops
// with its context.
func TestUptime_Success_Run(t *testing.T) {
	t.Parallel()

	u := NewUptime()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		u.Run(ctx, 5*time.Millisecond)
	}()

	assert.Eventually(t, func() bool {
		return u.Ticks() >= 20
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
