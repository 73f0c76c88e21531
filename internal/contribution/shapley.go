package contribution

import (
	"context"

	"mintpy/domain/core"
	"mintpy/internal/sampling"
	"mintpy/ports"
)

// SamplingShapley estimates Shapley-style contributions by averaging
// marginal effects over random feature orderings against a background
// sample. Because each ordering telescopes from a background row to the
// explained row, the decomposition bias + sum(contributions) equals the
// model output exactly, up to floating point.
type SamplingShapley struct {
	// Background rows stand in for "feature absent". Typically a
	// subsample of the training data.
	Background [][]float64
	// NPermutations is the number of random orderings averaged per
	// example. More orderings, tighter estimates.
	NPermutations int
	// Output selects which model head the attribution decomposes.
	Output core.ModelOutput

	RNG  ports.RNG
	Seed int64
}

var _ ports.Attributor = (*SamplingShapley)(nil)

// Attribute explains each row of batch. Columns of batch align with
// features, and with the background rows.
func (s *SamplingShapley) Attribute(ctx context.Context, model ports.Model, batch [][]float64, features []core.FeatureKey) ([]ports.Attribution, error) {
	if len(s.Background) == 0 {
		return nil, core.NewConfigurationError("sampling shapley requires background rows")
	}
	nPerm := s.NPermutations
	if nPerm < 1 {
		nPerm = 25
	}
	d := len(features)
	for _, row := range append(batch, s.Background...) {
		if len(row) != d {
			return nil, core.NewConfigurationError("attribution rows must match the feature count")
		}
	}
	rng := s.RNG
	if rng == nil {
		rng = sampling.NewRNG()
	}
	r := rng.Stream("contribution/shapley", s.Seed)

	out := make([]ports.Attribution, len(batch))
	for i, x := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// One batch per example: for every ordering, the background
		// row followed by d partially-substituted rows ending at x.
		rows := make([][]float64, 0, nPerm*(d+1))
		orders := make([][]int, nPerm)
		for p := 0; p < nPerm; p++ {
			bg := s.Background[r.Intn(len(s.Background))]
			orders[p] = r.Perm(d)

			z := append([]float64(nil), bg...)
			rows = append(rows, append([]float64(nil), z...))
			for _, j := range orders[p] {
				z[j] = x[j]
				rows = append(rows, append([]float64(nil), z...))
			}
		}
		preds, err := ports.Score(model, rows, s.Output)
		if err != nil {
			return nil, err
		}

		contrib := make(map[core.FeatureKey]float64, d)
		var bias float64
		for p := 0; p < nPerm; p++ {
			base := p * (d + 1)
			bias += preds[base]
			for step, j := range orders[p] {
				contrib[features[j]] += preds[base+step+1] - preds[base+step]
			}
		}
		bias /= float64(nPerm)
		for _, f := range features {
			contrib[f] /= float64(nPerm)
		}
		out[i] = ports.Attribution{Bias: bias, Contributions: contrib}
	}
	return out, nil
}
