// Package backoff provides the bounded exponential wait used by the receive and
// accept loops after a transient I/O error.
package backoff

import (
	"context"
	"time"
)

// Backoff tracks consecutive failures of one loop. Not safe for concurrent use.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	attempt int
}

// New returns a Backoff starting at base and capped at max.
func New(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max}
}

// Next returns the delay for the current failure and advances the attempt count.
func (b *Backoff) Next() time.Duration {
	d := Exponential(b.Base, b.attempt, b.Max)
	b.attempt++
	return d
}

// Reset is called after a successful operation.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Wait sleeps for the next delay. It returns false if ctx was cancelled first.
func (b *Backoff) Wait(ctx context.Context) bool {
	return Sleep(ctx, b.Next())
}

// Exponential computes base * 2^attempt, capped at maxDelay.
func Exponential(base time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := base * time.Duration(1<<uint(attempt))

	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
