// Package sampling provides the deterministic RNG implementation and
// the index-drawing helpers shared by the resampling engines.
package sampling

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicRNG derives an independent seeded stream per named
// operation by folding the name into the base seed. The same
// (name, seed) pair always yields the same stream.
type DeterministicRNG struct{}

// NewRNG returns the default deterministic generator factory.
func NewRNG() *DeterministicRNG { return &DeterministicRNG{} }

// Stream implements ports.RNG.
func (*DeterministicRNG) Stream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// ResolveSize turns the subsample configuration value into an example
// count: a fraction of n when in (0, 1], an absolute count when > 1,
// clamped to [1, n]. Zero or negative means the full set.
func ResolveSize(n int, subsample float64) int {
	if subsample <= 0 || subsample == 1 {
		return n
	}
	var k int
	if subsample < 1 {
		k = int(subsample * float64(n))
	} else {
		k = int(subsample)
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// WithoutReplacement draws k distinct indices from [0, n).
func WithoutReplacement(r *rand.Rand, n, k int) []int {
	idx := r.Perm(n)[:k]
	out := append([]int(nil), idx...)
	return out
}

// WithReplacement draws k indices from [0, n) with replacement,
// the bootstrap resample.
func WithReplacement(r *rand.Rand, n, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = r.Intn(n)
	}
	return out
}

// Shuffled returns a permuted copy of the column, the core operation of
// permutation importance.
func Shuffled(r *rand.Rand, column []float64) []float64 {
	out := append([]float64(nil), column...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
