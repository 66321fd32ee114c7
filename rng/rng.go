// Package rng provides the injectable randomness source used throughout the
// simulator. Every random draw in the core goes through a Source so that
// tests can fix a seed and reproduce a run bit-for-bit, per the "Randomness"
// design note: production code seeds from the OS clock, tests seed with a
// fixed value.
package rng

import (
	"math/rand"
	"time"
)

// Source is the randomness contract every simulator component draws from.
// It is deliberately narrow: only the primitives the simulator actually needs.
type Source interface {
	// Normal returns a sample from N(mean, stddev).
	Normal(mean, stddev float64) float64
	// IntRange returns a uniform integer in [min, max] inclusive.
	IntRange(min, max int) int
	// Float01 returns a uniform float in [0, 1).
	Float01() float64
	// Shuffle randomizes the order of a slice of length n using swap(i, j).
	Shuffle(n int, swap func(i, j int))
}

// mathRand adapts math/rand.Rand to Source. math/rand is the standard
// library's seeded PRNG and is what every draw in this package needs
// (uniform ints, normal floats, Fisher-Yates shuffling); no third-party
// library in the reference corpus specializes in seeded random distributions,
// so the standard library is the correct tool here (see DESIGN.md).
type mathRand struct {
	r *rand.Rand
}

// New returns a Source seeded with the given value. Use a fixed seed in
// tests and a time-derived seed in production (see NewFromClock).
func New(seed int64) Source {
	return &mathRand{r: rand.New(rand.NewSource(seed))}
}

// NewFromClock returns a Source seeded from the current wall clock, for
// production runs where reproducibility is not required.
func NewFromClock() Source {
	return New(time.Now().UnixNano())
}

func (m *mathRand) Normal(mean, stddev float64) float64 {
	return m.r.NormFloat64()*stddev + mean
}

func (m *mathRand) IntRange(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + m.r.Intn(max-min+1)
}

func (m *mathRand) Float01() float64 {
	return m.r.Float64()
}

func (m *mathRand) Shuffle(n int, swap func(i, j int)) {
	m.r.Shuffle(n, swap)
}
