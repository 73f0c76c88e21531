package ports

import (
	"context"

	"mintpy/domain/core"
)

// Attribution is one example's feature-contribution decomposition.
// The defining invariant is Bias + sum(Contributions) approximately
// equal to the model output for the example, within the backend's own
// numerical tolerance.
type Attribution struct {
	Bias          float64
	Contributions map[core.FeatureKey]float64
}

// Sum returns bias plus all contributions.
func (a Attribution) Sum() float64 {
	total := a.Bias
	for _, c := range a.Contributions {
		total += c
	}
	return total
}

// Attributor is the external attribution backend contract: tree-path
// exact decomposition or sampling-based additive attribution. The
// toolkit only sanity-checks the decomposition invariant; backend
// internals are not reimplemented here.
type Attributor interface {
	Attribute(ctx context.Context, model Model, batch [][]float64, features []core.FeatureKey) ([]Attribution, error)
}
