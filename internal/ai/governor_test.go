package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestWindow(limit int, window time.Duration, clock *fakeClock) *SlidingWindow {
	w := NewSlidingWindow(limit, window)
	w.now = clock.Now
	w.sleep = clock.Sleep
	return w
}

func TestSlidingWindowAdmitsUpToLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	w := newTestWindow(3, time.Minute, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Wait(ctx))
		clock.now = clock.now.Add(time.Second)
	}
	require.Empty(t, clock.sleeps)
}

func TestSlidingWindowBlocksUntilOldestExpires(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	w := newTestWindow(2, time.Minute, clock)
	ctx := context.Background()

	require.NoError(t, w.Wait(ctx))
	clock.now = start.Add(10 * time.Second)
	require.NoError(t, w.Wait(ctx))
	clock.now = start.Add(20 * time.Second)

	require.NoError(t, w.Wait(ctx))
	require.Equal(t, []time.Duration{40 * time.Second}, clock.sleeps)
	require.Equal(t, start.Add(time.Minute), clock.now)
}

func TestSlidingWindowHonoursCancellation(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	w := newTestWindow(1, time.Minute, clock)
	require.NoError(t, w.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Wait(ctx), context.Canceled)
}

func TestSlidingWindowDisabled(t *testing.T) {
	w := NewSlidingWindow(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Wait(context.Background()))
	}
}

func TestSlidingWindowRealTimer(t *testing.T) {
	w := NewSlidingWindow(1, 30*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, w.Wait(ctx))
	started := time.Now()
	require.NoError(t, w.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
}
