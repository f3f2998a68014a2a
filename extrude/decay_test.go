package extrude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecayFactor(t *testing.T) {
	for _, k := range []float64{1.0, 1.05} {
		assert.InDelta(t, 1.0, DecayFactor(0, 20, k), 1e-12, "k=%v center", k)
		assert.InDelta(t, 0.0, DecayFactor(20/k, 20, k), 1e-12, "k=%v zero crossing", k)
		assert.Less(t, DecayFactor(10, 20, k), 1.0, "k=%v nominal edge", k)
		assert.Less(t, DecayFactor(30, 20, k), 0.0, "k=%v beyond zero crossing", k)
	}
	assert.InDelta(t, 0.75, DecayFactor(10, 20, 1), 1e-12)
}

func TestDecayIsMonotonic(t *testing.T) {
	prev := DecayFactor(0, 30, DefaultDecayShape)
	for r := 0.5; r < 40; r += 0.5 {
		f := DecayFactor(r, 30, DefaultDecayShape)
		assert.Less(t, f, prev, "radius %v", r)
		prev = f
	}
}

func TestClampedDecay(t *testing.T) {
	assert.Equal(t, 0.0, ClampedDecay(50, 20, 1))
	assert.Equal(t, 1.0, ClampedDecay(0, 20, 1))
	assert.InDelta(t, 0.75, ClampedDecay(10, 20, 1), 1e-12)
}
