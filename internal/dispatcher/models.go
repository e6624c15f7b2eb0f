// Package dispatcher is the truck side of the request protocol: it accepts
// TCP connections, reads one PING each, and answers with an ACK carrying the
// queue position and estimated wait.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"truckping/internal/journal"
	"truckping/internal/wire"
)

const (
	DefaultReadTimeout  = 2 * time.Second
	DefaultWriteTimeout = 2 * time.Second
	DefaultAcceptPoll   = time.Second
	DefaultBaseETA      = 5
	DefaultBackoffBase  = 20 * time.Millisecond
	DefaultBackoffMax   = time.Second
)

var (
	ErrNotListening = errors.New("dispatcher is not listening")

	errLineTooLong = errors.New("request line too long")
)

// Config describes one vendor's request endpoint.
type Config struct {
	VendorID wire.ID
	// Addr is the TCP listen address. Port 0 picks a free port; Port reports it.
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// BaseETA is the wait in minutes quoted to a request that finds the queue empty.
	BaseETA     int
	AcceptPoll  time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func (c *Config) setDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.BaseETA <= 0 {
		c.BaseETA = DefaultBaseETA
	}
	if c.AcceptPoll <= 0 {
		c.AcceptPoll = DefaultAcceptPoll
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
}

// Locator reports the truck's current position for the journal.
type Locator interface {
	Position() (lat, lon float64)
}

// Recorder receives every request that is about to be acknowledged.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// ETA is the quoted wait for a request that observed queue depth q.
func ETA(base, q int) int {
	return base + (q - 1)
}
