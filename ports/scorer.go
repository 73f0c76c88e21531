package ports

// Scorer evaluates predictions against targets and returns a scalar.
// Each scorer is monotonic in a known direction declared by the paired
// scoring strategy; an opaque caller-supplied scorer must declare its
// strategy explicitly because direction cannot be inferred.
type Scorer func(targets, predictions []float64) float64
