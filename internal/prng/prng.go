// Package prng provides the deterministic pseudo-random stream behind
// synthetic charts: the same seed always yields the same sequence.
package prng

const (
	multiplier = 1664525
	increment  = 1013904223
	modulus    = 1 << 32
)

// LCG is a 32-bit linear congruential generator.
// Not safe for concurrent use; each instance owns its state.
type LCG struct {
	s uint32
}

// New creates a generator from seed.
func New(seed uint32) *LCG {
	return &LCG{s: seed}
}

// Next advances the state and returns a float in [0, 1).
func (g *LCG) Next() float64 {
	// uint32 arithmetic wraps, which is the mod 2^32 step.
	g.s = g.s*multiplier + increment
	return float64(g.s) / modulus
}

// Func returns the generator in closure form.
func Func(seed uint32) func() float64 {
	return New(seed).Next
}
