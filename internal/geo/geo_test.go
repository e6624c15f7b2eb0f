package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {31.956, 35.945}, {-89.9, 179.9}, {51.5, -0.12}}
	for _, p := range points {
		assert.Equal(t, 0.0, Haversine(p[0], p[1], p[0], p[1]))
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := [2]float64{31.956, 35.945}
	b := [2]float64{32.5556, 35.85}

	assert.InDelta(t, Haversine(a[0], a[1], b[0], b[1]), Haversine(b[0], b[1], a[0], a[1]), 1e-9)
}

func TestHaversine_MonotonicAlongBearing(t *testing.T) {
	lat, lon := 31.956, 35.945

	prev := 0.0
	for step := 1; step <= 50; step++ {
		offset := float64(step) * 0.01
		d := Haversine(lat, lon, lat+offset, lon+offset)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// One degree of latitude is roughly 111.19 km on a 6371 km sphere.
	assert.InDelta(t, 111.19, Haversine(0, 0, 1, 0), 0.01)
	assert.Greater(t, Haversine(31.956, 35.945, 31.957, 35.945), 0.0)
}
