package position

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckping/internal/geo"
	"truckping/internal/util/logger/handlers/slogdiscard"
)

func TestWalker_StaysWithinStep(t *testing.T) {
	w := NewSeededWalker(4, 42)
	lat, lon := 31.956, 35.945

	for i := 0; i < 1000; i++ {
		nlat, nlon := w.Step(lat, lon)
		// Each axis moves at most 4m, so the diagonal is under 6m.
		assert.Less(t, geo.Haversine(lat, lon, nlat, nlon), 0.006)
		lat, lon = nlat, nlon
	}
}

func TestWalker_MovesOverTime(t *testing.T) {
	w := NewWalker(5)
	lat0, lon0 := 31.956, 35.945
	lat, lon := lat0, lon0

	for i := 0; i < 1000; i++ {
		lat, lon = w.Step(lat, lon)
	}
	assert.False(t, lat == lat0 && lon == lon0)
}

func TestWalker_DefaultStep(t *testing.T) {
	assert.Equal(t, DefaultMaxStepMeter, NewSeededWalker(0, 1).MaxStepMeters)
}

type fixedStepper struct{}

func (fixedStepper) Step(lat, lon float64) (float64, float64) { return lat + 1, lon - 1 }

func TestTracker_Run(t *testing.T) {
	tr := NewTracker(0, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		tr.Run(ctx, fixedStepper{}, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		lat, _ := tr.Position()
		return lat >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	lat, lon := tr.Position()
	assert.Equal(t, -lat, lon)
}

func TestParseFix(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "space separated", input: "31.956 35.945\n", lat: 31.956, lon: 35.945},
		{name: "comma separated", input: "31.956,35.945", lat: 31.956, lon: 35.945},
		{name: "comma and space", input: "-12.5, 130.8\r\nignored", lat: -12.5, lon: 130.8},
		{name: "one field", input: "31.956", wantErr: true},
		{name: "garbage", input: "north east", wantErr: true},
		{name: "latitude out of range", input: "91 0", wantErr: true},
		{name: "longitude out of range", input: "0 181", wantErr: true},
		{name: "NaN latitude", input: "NaN 35", wantErr: true},
		{name: "NaN longitude", input: "31 nan", wantErr: true},
		{name: "infinite longitude", input: "31 -Inf", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lat, lon, err := ParseFix(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFix)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.lat, lat)
			assert.Equal(t, tc.lon, lon)
		})
	}
}

func TestFileFeed_FollowsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fix.txt")
	require.NoError(t, os.WriteFile(path, []byte("31.956 35.945\n"), 0o644))

	tr := NewTracker(0, 0)
	feed, err := NewFileFeed(path, tr, 10*time.Millisecond, slogdiscard.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { feed.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	assert.Eventually(t, func() bool {
		lat, lon := tr.Position()
		return lat == 31.956 && lon == 35.945
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("32.0,36.0\n"), 0o644))

	assert.Eventually(t, func() bool {
		lat, lon := tr.Position()
		return lat == 32.0 && lon == 36.0
	}, 2*time.Second, 10*time.Millisecond)

	// A broken fix leaves the last good position in place.
	require.NoError(t, os.WriteFile(path, []byte("lost signal\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	lat, lon := tr.Position()
	assert.Equal(t, 32.0, lat)
	assert.Equal(t, 36.0, lon)
}
