package registry

import (
	"net"
	"strconv"
	"time"

	"truckping/internal/wire"
)

// VendorRecord is what the registry knows about one truck.
type VendorRecord struct {
	ID           wire.ID
	Lat          float64
	Lon          float64
	Port         int
	AdvertisedAt int64     // ts carried by the heartbeat, sender clock
	LastSeen     time.Time // arrival time of the latest heartbeat
	Source       net.IP    // address the latest heartbeat came from
}

// FromPresence builds a record from a decoded heartbeat stamped with its
// arrival time and source address.
func FromPresence(p wire.Presence, seen time.Time, src net.IP) VendorRecord {
	return VendorRecord{
		ID:           p.TruckID,
		Lat:          p.Lat,
		Lon:          p.Lon,
		Port:         p.Port,
		AdvertisedAt: p.Timestamp,
		LastSeen:     seen,
		Source:       src,
	}
}

// Endpoint returns the host:port a ping for this truck should be sent to.
func (r VendorRecord) Endpoint() string {
	return net.JoinHostPort(r.Source.String(), strconv.Itoa(r.Port))
}

// Ranked pairs a record with its distance from a reference point.
type Ranked struct {
	DistanceKm float64
	Record     VendorRecord
}

// Config holds registry settings.
type Config struct {
	// StaleAfter is the age past which a record is evicted by SnapshotRanked.
	StaleAfter time.Duration
	// MaxEntries bounds the number of distinct trucks (0 means unbounded).
	MaxEntries int
	// Now is the clock used by SnapshotRanked. Defaults to time.Now.
	Now func() time.Time
}

// DefaultStaleAfter matches the heartbeat interval times three.
const DefaultStaleAfter = 3 * time.Second
