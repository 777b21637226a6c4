// Package montecarlo provides the deterministic random source and the
// sample statistics used by the simulation code paths.
package montecarlo

import "math/rand/v2"

// NewRand returns a PCG generator seeded from a single explicit seed.
// Every stochastic call site constructs its own generator; identical
// seeds yield bit-identical draw sequences, which is what makes the
// noisy objective deterministic.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Normal draws one N(mu, sigma) sample from rng.
func Normal(rng *rand.Rand, mu, sigma float64) float64 {
	return mu + sigma*rng.NormFloat64()
}
