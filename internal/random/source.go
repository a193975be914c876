package random

import (
	"math"
	"math/rand"
	"sync"
)

// Rand draws uniform integers from a seeded generator. It is safe for
// concurrent use.
type Rand struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
}

// NewSource returns a Rand seeded with seed.
func NewSource(seed int64) *Rand {
	return &Rand{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// New returns a Rand seeded from crypto/rand.
func New() (*Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSource(seed), nil
}

// Seed returns the seed the generator started from.
func (r *Rand) Seed() int64 {
	return r.seed
}

// Between returns a uniformly distributed integer in [low, high].
// It panics when low > high.
func (r *Rand) Between(low, high int) int {
	if low > high {
		panic("random: Between called with low > high")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	span := uint64(high) - uint64(low)
	switch {
	case span < math.MaxInt64:
		return low + int(r.rng.Int63n(int64(span)+1))
	case span == math.MaxUint64:
		return int(r.rng.Uint64())
	default:
		for {
			value := r.rng.Uint64()
			if value <= span {
				return low + int(value)
			}
		}
	}
}
