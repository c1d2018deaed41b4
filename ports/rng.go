package ports

import (
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic simulation
type RNGPort interface {
	// Stream creates an independent generator for one chunk of a named operation.
	// The same (name, seed, index) always yields the same sequence.
	Stream(name string, seed uint64, index int) *rand.Rand
}
