// Package presence carries truck heartbeats over UDP multicast: the Broadcaster
// runs on the truck, the Listener on the client and feeds the registry.
package presence

import (
	"time"

	"truckping/internal/registry"
	"truckping/internal/wire"
)

const (
	DefaultGroup        = "239.255.0.1:5000"
	DefaultInterval     = time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultBackoffBase  = 20 * time.Millisecond
	DefaultBackoffMax   = time.Second

	readBufferSize = 1024 * 1024
)

// Locator reports the truck's current position.
type Locator interface {
	Position() (lat, lon float64)
}

// Upserter stores a freshly heard truck.
type Upserter interface {
	Upsert(rec registry.VendorRecord) error
}

// BroadcasterConfig describes what a truck advertises and where.
type BroadcasterConfig struct {
	Group    string
	Interval time.Duration
	TruckID  wire.ID
	Port     int
}

// ListenerConfig tunes the receive loop.
type ListenerConfig struct {
	// PollInterval bounds each read so shutdown is noticed promptly.
	PollInterval time.Duration
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

func (c *ListenerConfig) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
}
