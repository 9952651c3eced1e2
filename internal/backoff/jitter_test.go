package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitterWithinSpread(t *testing.T) {
	rng := NewRNG(42)
	base := 100 * time.Millisecond
	lo := time.Duration(0.9 * float64(base))
	hi := time.Duration(1.1 * float64(base))

	for i := 0; i < 1000; i++ {
		d := Jitter(base, rng)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}

func TestNewRNGNilForZeroSeed(t *testing.T) {
	assert.Nil(t, NewRNG(0))
	assert.NotNil(t, NewRNG(1))
}

func TestJitterDeterministicWithSeed(t *testing.T) {
	base := 100 * time.Millisecond
	a := Jitter(base, NewRNG(7))
	b := Jitter(base, NewRNG(7))
	assert.Equal(t, a, b)
}
