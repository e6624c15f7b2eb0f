package registry

import (
	"fmt"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckping/internal/wire"
)

var t0 = time.Unix(1700000000, 0)

func record(id string, lat, lon float64, seen time.Time) VendorRecord {
	return VendorRecord{
		ID:       wire.ID(id),
		Lat:      lat,
		Lon:      lon,
		Port:     6012,
		LastSeen: seen,
		Source:   net.ParseIP("192.168.1.10"),
	}
}

func newTestRegistry(now *time.Time) *Registry {
	return New(Config{
		StaleAfter: 3 * time.Second,
		Now:        func() time.Time { return *now },
	})
}

func TestUpsert_ReplacesSameID(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	require.NoError(t, r.Upsert(record("TRK01", 31.0, 35.0, t0)))
	updated := record("TRK01", 31.5, 35.5, t0.Add(time.Second))
	updated.Port = 7000
	updated.Source = net.ParseIP("10.0.0.7")
	require.NoError(t, r.Upsert(updated))

	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup("TRK01")
	require.True(t, ok)
	assert.Equal(t, 31.5, got.Lat)
	assert.Equal(t, 35.5, got.Lon)
	assert.Equal(t, 7000, got.Port)
	assert.True(t, got.Source.Equal(net.ParseIP("10.0.0.7")))
	assert.Equal(t, t0.Add(time.Second), got.LastSeen)
}

func TestLookup_Missing(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)
	require.NoError(t, r.Upsert(record("TRK01", 0, 0, t0)))

	_, ok := r.Lookup("TRK99")
	assert.False(t, ok)
}

func TestPrune_RemovesOnlyStale(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	require.NoError(t, r.Upsert(record("A", 0, 0, t0)))
	require.NoError(t, r.Upsert(record("B", 0, 0, t0.Add(5*time.Second))))
	require.NoError(t, r.Upsert(record("C", 0, 0, t0.Add(1*time.Second))))
	require.NoError(t, r.Upsert(record("D", 0, 0, t0.Add(7*time.Second))))

	removed := r.Prune(t0.Add(8*time.Second), 3*time.Second)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, r.Len())

	_, ok := r.Lookup("B")
	assert.True(t, ok)
	_, ok = r.Lookup("D")
	assert.True(t, ok)
	_, ok = r.Lookup("A")
	assert.False(t, ok)
}

func TestPrune_PreservesOrder(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	for i, seen := range []time.Duration{0, 9, 1, 8, 7} {
		require.NoError(t, r.Upsert(record(fmt.Sprintf("T%d", i), 0, 0, t0.Add(seen*time.Second))))
	}

	r.Prune(t0.Add(10*time.Second), 3*time.Second)

	r.mu.RLock()
	ids := make([]wire.ID, 0, len(r.records))
	for _, rec := range r.records {
		ids = append(ids, rec.ID)
	}
	r.mu.RUnlock()
	assert.Equal(t, []wire.ID{"T1", "T3", "T4"}, ids)
}

func TestPrune_BoundaryIsKept(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)
	require.NoError(t, r.Upsert(record("EDGE", 0, 0, t0)))

	assert.Equal(t, 0, r.Prune(t0.Add(3*time.Second), 3*time.Second))
	assert.Equal(t, 1, r.Prune(t0.Add(3*time.Second+time.Millisecond), 3*time.Second))
}

func TestSnapshotRanked_SortedByDistance(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	originLat, originLon := 31.956, 35.945
	require.NoError(t, r.Upsert(record("FAR", 32.5, 36.0, t0)))
	require.NoError(t, r.Upsert(record("HERE", originLat, originLon, t0)))
	require.NoError(t, r.Upsert(record("NEAR", 31.96, 35.95, t0)))
	require.NoError(t, r.Upsert(record("MID", 32.0, 35.9, t0)))

	rows := r.SnapshotRanked(originLat, originLon)
	require.Len(t, rows, 4)

	assert.Equal(t, wire.ID("HERE"), rows[0].Record.ID)
	assert.Equal(t, 0.0, rows[0].DistanceKm)
	assert.Equal(t, wire.ID("FAR"), rows[3].Record.ID)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].DistanceKm, rows[i].DistanceKm)
	}
}

func TestSnapshotRanked_EvictsStale(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	require.NoError(t, r.Upsert(record("TRK02", 31.956, 35.945, t0)))
	require.NoError(t, r.Upsert(record("TRK03", 31.956, 35.945, t0.Add(9*time.Second))))

	now = t0.Add(10 * time.Second)
	rows := r.SnapshotRanked(31.956, 35.945)

	require.Len(t, rows, 1)
	assert.Equal(t, wire.ID("TRK03"), rows[0].Record.ID)

	_, ok := r.Lookup("TRK02")
	assert.False(t, ok)
}

func TestUpsert_RejectsInvalidPosition(t *testing.T) {
	now := t0
	r := newTestRegistry(&now)

	require.NoError(t, r.Upsert(record("FAR", 40, 40, t0)))
	require.NoError(t, r.Upsert(record("NEAR", 0, 0.01, t0)))

	for _, bad := range []VendorRecord{
		record("BAD1", math.NaN(), 0, t0),
		record("BAD2", 0, math.Inf(1), t0),
		record("BAD3", 91, 0, t0),
	} {
		assert.ErrorIs(t, r.Upsert(bad), ErrInvalidPosition)
	}

	rows := r.SnapshotRanked(0, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, wire.ID("NEAR"), rows[0].Record.ID)
	assert.Equal(t, wire.ID("FAR"), rows[1].Record.ID)
}

func TestUpsert_FullRejectsNewIDs(t *testing.T) {
	r := New(Config{MaxEntries: 2})
	now := time.Now()

	require.NoError(t, r.Upsert(record("A", 1, 1, now)))
	require.NoError(t, r.Upsert(record("B", 2, 2, now)))

	err := r.Upsert(record("C", 3, 3, now))
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 2, r.Len())

	// Refreshing a known truck still works when full.
	require.NoError(t, r.Upsert(record("A", 9, 9, now)))
	got, ok := r.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 9.0, got.Lat)
}

func TestUpsert_Concurrent(t *testing.T) {
	r := New(Config{StaleAfter: time.Minute})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = r.Upsert(record(fmt.Sprintf("T%02d", i%20), float64(w), float64(i), time.Now()))
				r.SnapshotRanked(0, 0)
				r.Lookup(wire.ID(fmt.Sprintf("T%02d", i%20)))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 20, r.Len())
}

func TestEndpoint(t *testing.T) {
	rec := record("TRK01", 0, 0, t0)
	assert.Equal(t, "192.168.1.10:6012", rec.Endpoint())
}

func TestFromPresence(t *testing.T) {
	p := wire.Presence{TruckID: "TRK01", Lat: 31.956, Lon: 35.945, Timestamp: 99, Port: 6012}
	src := net.ParseIP("10.1.1.1")

	rec := FromPresence(p, t0, src)
	assert.Equal(t, VendorRecord{
		ID: "TRK01", Lat: 31.956, Lon: 35.945, Port: 6012, AdvertisedAt: 99, LastSeen: t0, Source: src,
	}, rec)
}
