// Package registry keeps the client-side table of trucks learned from presence
// heartbeats. Every access goes through the registry lock.
package registry

import (
	"math"
	"slices"
	"sync"
	"time"

	"truckping/internal/geo"
	"truckping/internal/wire"
)

// Registry is a small mutex-guarded table of trucks keyed by ID. Lookups are
// linear scans; expected sizes are tens of entries.
type Registry struct {
	mu         sync.RWMutex
	records    []VendorRecord
	staleAfter time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Registry{
		staleAfter: cfg.StaleAfter,
		maxEntries: cfg.MaxEntries,
		now:        cfg.Now,
	}
}

// Upsert replaces the record with the same ID or appends a new one. When the
// registry is full a new ID is rejected with ErrFull and nothing changes.
func (r *Registry) Upsert(rec VendorRecord) error {
	if !validPosition(rec.Lat, rec.Lon) {
		return ErrInvalidPosition
	}
	rec.Source = slices.Clone(rec.Source)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == rec.ID {
			r.records[i] = rec
			return nil
		}
	}

	if r.maxEntries > 0 && len(r.records) >= r.maxEntries {
		return ErrFull
	}
	r.records = append(r.records, rec)
	return nil
}

// Prune drops records older than staleAfter relative to now, keeping the order
// of the survivors. It returns the number of records removed.
func (r *Registry) Prune(now time.Time, staleAfter time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.prune(now, staleAfter)
}

func (r *Registry) prune(now time.Time, staleAfter time.Duration) int {
	w := 0
	for _, rec := range r.records {
		if now.Sub(rec.LastSeen) <= staleAfter {
			r.records[w] = rec
			w++
		}
	}
	removed := len(r.records) - w
	clear(r.records[w:])
	r.records = r.records[:w]
	return removed
}

// SnapshotRanked evicts stale records and returns the rest ordered by distance
// from (lat, lon), nearest first.
func (r *Registry) SnapshotRanked(lat, lon float64) []Ranked {
	r.mu.Lock()
	r.prune(r.now(), r.staleAfter)

	rows := make([]Ranked, len(r.records))
	for i, rec := range r.records {
		rows[i] = Ranked{
			DistanceKm: geo.Haversine(lat, lon, rec.Lat, rec.Lon),
			Record:     rec,
		}
	}
	r.mu.Unlock()

	slices.SortStableFunc(rows, func(a, b Ranked) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return 0
	})
	return rows
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id wire.ID) (VendorRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return VendorRecord{}, false
}

// Len returns the number of records currently held, stale or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}

func validPosition(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
