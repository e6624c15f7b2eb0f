package position

import (
	"math"
	"math/rand/v2"
)

const (
	metersPerDegree     = 111320.0
	DefaultMaxStepMeter = 3.0
)

// Walker is a random walk that moves up to MaxStepMeters along each axis per step.
type Walker struct {
	MaxStepMeters float64
	rnd           *rand.Rand
}

// NewWalker returns a walker seeded from the runtime source.
func NewWalker(maxStepMeters float64) *Walker {
	return NewSeededWalker(maxStepMeters, rand.Uint64())
}

// NewSeededWalker returns a deterministic walker.
func NewSeededWalker(maxStepMeters float64, seed uint64) *Walker {
	if maxStepMeters <= 0 {
		maxStepMeters = DefaultMaxStepMeter
	}
	return &Walker{
		MaxStepMeters: maxStepMeters,
		rnd:           rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

func (w *Walker) Step(lat, lon float64) (float64, float64) {
	dLatM := (w.rnd.Float64() - 0.5) * 2 * w.MaxStepMeters
	dLonM := (w.rnd.Float64() - 0.5) * 2 * w.MaxStepMeters

	lat += dLatM / metersPerDegree
	lon += dLonM / (metersPerDegree * math.Cos(lat*math.Pi/180))
	return lat, lon
}
