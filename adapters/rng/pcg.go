package rng

import (
	"math/rand/v2"

	"gosize/ports"
)

// PCGAdapter implements ports.RNGPort with PCG streams. The stream name and
// chunk index select the PCG sequence so chunks never share state.
type PCGAdapter struct{}

// NewPCGAdapter creates a new PCG-backed RNG adapter
func NewPCGAdapter() *PCGAdapter {
	return &PCGAdapter{}
}

var _ ports.RNGPort = (*PCGAdapter)(nil)

// Stream creates a deterministic RNG stream for one chunk of a named operation
func (a *PCGAdapter) Stream(name string, seed uint64, index int) *rand.Rand {
	sequence := uint64(hashString(name))<<32 | uint64(uint32(index))
	return rand.New(rand.NewPCG(seed, sequence))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
