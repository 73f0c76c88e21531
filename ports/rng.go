package ports

import "math/rand"

// RNG provides seeded random number generation for deterministic
// resampling. Each named operation gets its own stream so permutation
// shuffles, subsampling, and bootstrap draws stay reproducible for a
// fixed seed regardless of call interleaving.
type RNG interface {
	// Stream creates a deterministic generator for a named operation.
	Stream(name string, seed int64) *rand.Rand
}
