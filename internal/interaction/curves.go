// Package interaction computes feature-interaction diagnostics on top
// of ALE, PD, and permutation outputs: Friedman's H-statistic, the
// interaction strength (IAS), variance- and performance-based rankings,
// and the main effect complexity (MEC).
package interaction

import (
	"mintpy/domain/core"
	"mintpy/internal/bins"
)

// Curve is one feature's first-order effect curve with its bin edges,
// the precursor handed in from the ALE engine.
type Curve struct {
	Feature core.FeatureKey
	Values  []float64
	Edges   []float64
}

// Midpoints returns the x coordinates of the curve values.
func (c Curve) Midpoints() []float64 {
	if len(c.Edges) == len(c.Values) {
		// Categorical curves carry class values instead of edges.
		return c.Edges
	}
	return bins.Midpoints(c.Edges)
}

// binIndex locates the bin an observation falls into, clamping values
// beyond the trimmed edges into the outermost bins.
func (c Curve) binIndex(v float64) int {
	for i := 1; i < len(c.Edges); i++ {
		if v < c.Edges[i] {
			return i - 1
		}
	}
	return len(c.Values) - 1
}

// At evaluates the curve at an observed feature value.
func (c Curve) At(v float64) float64 {
	i := c.binIndex(v)
	if i < 0 {
		return 0
	}
	return c.Values[i]
}

// Surface is a feature pair's second-order effect grid.
type Surface struct {
	Pair   core.FeaturePair
	Values [][]float64
}
