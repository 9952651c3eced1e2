// Package backoff provides the jittered retry delay the lease manager uses
// while waiting for the work table lock to become available.
package backoff

import (
	rand "math/rand/v2"
	"time"
)

// Jitter returns a delay uniformly distributed in [0.9*base, 1.1*base],
// the same spread the coordination protocol has always used to keep
// competing lease attempts from retrying in lockstep.
//
// rng may be nil, in which case the package-level generator is used.
func Jitter(base time.Duration, rng *rand.Rand) time.Duration {
	var f float64
	if rng != nil {
		f = rng.Float64()
	} else {
		f = rand.Float64() //nolint:gosec // non-crypto backoff jitter
	}
	factor := 0.9 + 0.2*f

	return time.Duration(factor * float64(base))
}

// NewRNG returns a deterministic generator for a non-zero seed, or nil
// (meaning "use the package-level generator") for seed == 0. Tests pass a
// fixed seed to make retry timing reproducible.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
