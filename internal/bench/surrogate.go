package bench

import "math/rand"

// defaultSeed makes unseeded evaluations reproducible.
const defaultSeed = 42

// newRNG builds the evaluation random state from the options.
func newRNG(opts Options) *rand.Rand {
	seed := int64(defaultSeed)
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	return rand.New(rand.NewSource(seed))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
