package provider

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces successive provider requests by a configurable delay. The
// delay can be lowered temporarily for metadata-only enumeration and
// restored afterward.
type Limiter struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

// NewLimiter creates a limiter with the given inter-request delay.
func NewLimiter(delay time.Duration) *Limiter {
	return &Limiter{delay: delay}
}

// Wait blocks until the next request slot is free. Concurrent callers are
// each assigned their own slot, keeping requests spaced by the delay.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	next := l.last.Add(l.delay)
	var wait time.Duration
	if next.After(now) {
		wait = next.Sub(now)
	}
	l.last = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetDelay changes the inter-request delay and returns the previous value.
func (l *Limiter) SetDelay(d time.Duration) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.delay
	l.delay = d
	return prev
}

// Delay returns the current inter-request delay.
func (l *Limiter) Delay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.delay
}
