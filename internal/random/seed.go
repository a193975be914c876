// Package random provides the entropy used to roll dice.
//
// NewSeed reads a high-entropy seed from crypto/rand. Rand wraps a seeded
// math/rand generator behind a mutex so one instance can serve concurrent
// rolls while staying reproducible for a fixed seed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns seed unchanged when non-zero and a fresh crypto seed
// otherwise.
func ResolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return NewSeed()
}
