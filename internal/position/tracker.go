// Package position supplies the truck's current coordinates: a random-walk
// simulator for demos and a file feed for real GPS fixes.
package position

import (
	"context"
	"sync"
	"time"
)

// DefaultStepInterval is how often the simulator moves the truck.
const DefaultStepInterval = 300 * time.Millisecond

// Stepper moves a position by one step.
type Stepper interface {
	Step(lat, lon float64) (float64, float64)
}

// Tracker holds the truck's current position.
type Tracker struct {
	mu  sync.RWMutex
	lat float64
	lon float64
}

func NewTracker(lat, lon float64) *Tracker {
	return &Tracker{lat: lat, lon: lon}
}

// Position returns the current coordinates in degrees.
func (t *Tracker) Position() (float64, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lat, t.lon
}

func (t *Tracker) Set(lat, lon float64) {
	t.mu.Lock()
	t.lat, t.lon = lat, lon
	t.mu.Unlock()
}

// Run applies s every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, s Stepper, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			t.lat, t.lon = s.Step(t.lat, t.lon)
			t.mu.Unlock()
		}
	}
}
