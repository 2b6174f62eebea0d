package platform

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces out actions so that at least delay passes between the
// start of one and the start of the next.
type Throttle struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle creates a throttle. A zero delay disables it.
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay, now: time.Now, sleep: sleepCtx}
}

// Wait blocks until the next action may start, then reserves that slot
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.delay > 0 && !t.last.IsZero() {
		if remaining := t.delay - t.now().Sub(t.last); remaining > 0 {
			if err := t.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	t.last = t.now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
