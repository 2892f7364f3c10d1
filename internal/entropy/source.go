// Package entropy isolates the engine's randomness behind an injectable
// source so tests can fix seeds while production draws remain nondeterministic.
// Critical stochastic events (ecological shocks) may additionally pull true
// randomness from random.org via Client.
package entropy

import "math/rand"

// Source yields uniform random floats in [0, 1). All stochastic paths in the
// ecosystem and territory managers draw exclusively through a Source.
type Source interface {
	Float64() float64
}

// NewSeeded returns a deterministic Source backed by math/rand.
func NewSeeded(seed int64) Source {
	return &seeded{rng: rand.New(rand.NewSource(seed))}
}

type seeded struct {
	rng *rand.Rand
}

func (s *seeded) Float64() float64 {
	return s.rng.Float64()
}

// Between returns a uniform draw from [lo, hi).
func Between(s Source, lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// IntN returns a uniform draw from [0, n). n must be positive.
func IntN(s Source, n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
