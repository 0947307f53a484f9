package research

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces both a minimum delay between consecutive calls and a
// sliding-window requests-per-minute cap, shared across the worker pool.
type Limiter struct {
	minDelay time.Duration
	perMin   int

	mu       sync.Mutex
	lastCall time.Time
	window   []time.Time
}

// NewLimiter builds a limiter. perMin <= 0 disables the window cap;
// minDelay <= 0 disables the inter-call delay.
func NewLimiter(minDelay time.Duration, perMin int) *Limiter {
	return &Limiter{minDelay: minDelay, perMin: perMin}
}

// Wait blocks until the next call is allowed or ctx is done. The slot is
// reserved before returning, so concurrent waiters serialize correctly.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		wait := l.nextWait(now)
		if wait <= 0 {
			l.lastCall = now
			if l.perMin > 0 {
				l.window = append(l.window, now)
			}
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// nextWait returns how long the caller must still wait. Caller holds mu.
func (l *Limiter) nextWait(now time.Time) time.Duration {
	var wait time.Duration

	if l.minDelay > 0 && !l.lastCall.IsZero() {
		if d := l.minDelay - now.Sub(l.lastCall); d > wait {
			wait = d
		}
	}

	if l.perMin > 0 {
		cutoff := now.Add(-time.Minute)
		trimmed := l.window[:0]
		for _, t := range l.window {
			if t.After(cutoff) {
				trimmed = append(trimmed, t)
			}
		}
		l.window = trimmed

		if len(l.window) >= l.perMin {
			if d := l.window[0].Add(time.Minute).Sub(now); d > wait {
				wait = d
			}
		}
	}

	return wait
}
