package ai

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow admits at most limit requests in any rolling window.
// Callers over the cap block until the oldest request leaves the window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindow builds an in-process governor. limit <= 0 disables it.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{limit: limit, window: window, now: time.Now, sleep: sleepContext}
}

// Wait implements Limiter.
func (w *SlidingWindow) Wait(ctx context.Context) error {
	if w == nil || w.limit <= 0 {
		return nil
	}
	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return nil
		}
		delay := w.stamps[0].Add(w.window).Sub(now)
		w.mu.Unlock()

		if err := w.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (w *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	w.stamps = w.stamps[i:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
