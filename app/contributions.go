package app

import (
	"context"

	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/internal/contribution"
	"mintpy/internal/sampling"
	"mintpy/ports"
)

// ContributionRequest configures feature attribution.
type ContributionRequest struct {
	// Attributor is the decomposition backend. Nil selects a sampling
	// Shapley estimator over a background subsample of the session data.
	Attributor ports.Attributor
	// Indices selects the examples to explain; nil explains all.
	Indices []int
	// ByPerformance averages attributions over the top-K examples of
	// each performance bucket instead of explaining raw indices.
	ByPerformance bool
	// K is the per-bucket example count for performance-based mode.
	K int
	// NPermutations controls the default sampling backend's precision.
	NPermutations int
	// BackgroundSize caps the default backend's background sample.
	BackgroundSize int
}

// Contributions computes per-example feature attributions for every
// model. Tables are tabular: one column per feature plus a trailing
// bias column. In performance-based mode rows are the four buckets, in
// Labels order; otherwise one row per explained example.
func (t *Toolkit) Contributions(ctx context.Context, req ContributionRequest) (*result.Store, error) {
	engine := &contribution.Engine{Output: t.output, Log: t.log}
	features := t.data.Features()
	columns := make([]string, 0, len(features)+1)
	for _, f := range features {
		columns = append(columns, f.String())
	}
	columns = append(columns, "bias")

	store := t.newStore(core.MethodContributions, nil)
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		attributor := req.Attributor
		if attributor == nil {
			attributor = t.defaultAttributor(req)
		}

		key := result.Key(core.FeatureKey("contributions"), modelKey, core.MethodContributions)
		var rows [][]float64
		var labels []string
		if req.ByPerformance {
			k := req.K
			if k < 1 {
				k = 10
			}
			summaries, err := engine.AttributeByPerformance(ctx, attributor, model, t.data, k)
			if err != nil {
				return nil, err
			}
			for _, s := range summaries {
				rows = append(rows, attributionRow(s.Mean, features))
				labels = append(labels, s.Bucket)
			}
		} else {
			explained, err := engine.Attribute(ctx, attributor, model, t.data, req.Indices)
			if err != nil {
				return nil, err
			}
			for _, ex := range explained {
				rows = append(rows, attributionRow(ex.Attribution, features))
			}
		}

		table, err := result.NewTabularTable(key, columns, rows)
		if err != nil {
			return nil, err
		}
		table.Labels = labels
		if err := store.Add(table); err != nil {
			return nil, err
		}
	}
	t.cache.Put(core.MethodContributions, store)
	return store, nil
}

// defaultAttributor builds a sampling Shapley backend over a background
// drawn from the session data.
func (t *Toolkit) defaultAttributor(req ContributionRequest) ports.Attributor {
	size := req.BackgroundSize
	if size < 1 || size > t.data.Len() {
		size = t.data.Len()
		if size > 100 {
			size = 100
		}
	}
	r := t.rng.Stream("contribution/background", t.seed)
	idx := sampling.WithoutReplacement(r, t.data.Len(), size)
	return &contribution.SamplingShapley{
		Background:    t.data.Rows(idx),
		NPermutations: req.NPermutations,
		Output:        t.output,
		RNG:           t.rng,
		Seed:          t.seed,
	}
}

func attributionRow(a ports.Attribution, features []core.FeatureKey) []float64 {
	row := make([]float64, 0, len(features)+1)
	for _, f := range features {
		row = append(row, a.Contributions[f])
	}
	return append(row, a.Bias)
}
