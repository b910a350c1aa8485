// Package matchmaker selects the next pair of items to present for a
// pairwise comparison.
package matchmaker

import "math/rand"

// Option applies a configuration option to the Matchmaker.
type Option func(*Matchmaker)

// WithRand injects the randomness source used for selection. Tests
// pass a seeded source to make pair sequences reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(m *Matchmaker) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithSeed is a convenience form of WithRand for callers that only
// carry a seed, e.g. from configuration.
func WithSeed(seed int64) Option {
	return func(m *Matchmaker) {
		m.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // selection jitter, not security
	}
}
