// Package journal records every ping a truck acknowledged. It is write-mostly:
// the dispatcher appends, the CLI reads the most recent entries back.
package journal

import (
	"context"
	"time"
)

// Entry is one acknowledged ping.
type Entry struct {
	ID         string
	At         time.Time
	VendorID   string
	UserID     string
	Address    string
	Note       string
	VendorLat  float64
	VendorLon  float64
	ETAMinutes int
	Queued     int
}

// recentPrealloc caps the slice Recent allocates up front; n comes from the
// command line and may be arbitrarily large.
const recentPrealloc = 64

// Store persists entries. Recent returns at most n entries, newest first.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}
