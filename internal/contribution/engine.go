package contribution

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/ports"
)

// decompositionTol is how far bias + sum(contributions) may drift from
// the model output before the attribution is considered unfaithful.
const decompositionTol = 1e-3

// Engine runs an attribution backend over selected examples and keeps
// the results on the same scale as the rest of the toolkit.
type Engine struct {
	Output core.ModelOutput
	Log    zerolog.Logger
}

// Explained pairs an example index with its attribution. Probability
// mode reports bias and contributions in percentage points.
type Explained struct {
	Index       int
	Attribution ports.Attribution
}

// Attribute explains the given example indices (all examples when idx
// is nil). Each attribution is checked against the model output; a
// broken decomposition is logged and rejected rather than silently
// stored.
func (e *Engine) Attribute(ctx context.Context, attributor ports.Attributor, model ports.Model, ds *dataset.Dataset, idx []int) ([]Explained, error) {
	if attributor == nil {
		return nil, core.NewConfigurationError("no attribution backend configured")
	}
	if idx == nil {
		idx = make([]int, ds.Len())
		for i := range idx {
			idx[i] = i
		}
	}
	batch := ds.Rows(idx)
	features := ds.Features()

	attrs, err := attributor.Attribute(ctx, model, batch, features)
	if err != nil {
		return nil, err
	}
	if len(attrs) != len(idx) {
		return nil, core.NewConfigurationError("attribution backend returned the wrong number of rows")
	}

	preds, err := ports.Score(model, batch, e.Output)
	if err != nil {
		return nil, err
	}

	out := make([]Explained, len(idx))
	for i, a := range attrs {
		if gap := math.Abs(a.Sum() - preds[i]); gap > decompositionTol {
			e.Log.Warn().
				Int("example", idx[i]).
				Float64("gap", gap).
				Msg("attribution does not decompose the model output")
			return nil, core.NewConfigurationError("attribution backend does not decompose the model output")
		}
		if e.Output == core.OutputProbability {
			a = scaled(a, 100)
		}
		out[i] = Explained{Index: idx[i], Attribution: a}
	}
	return out, nil
}

// BucketSummary is the mean attribution over one performance bucket.
type BucketSummary struct {
	Bucket string
	Mean   ports.Attribution
}

// AttributeByPerformance selects the top-k examples of each performance
// bucket and averages their attributions, giving one contribution
// profile per bucket.
func (e *Engine) AttributeByPerformance(ctx context.Context, attributor ports.Attributor, model ports.Model, ds *dataset.Dataset, k int) ([]BucketSummary, error) {
	sel, err := SelectByPerformance(model, ds, e.Output, k)
	if err != nil {
		return nil, err
	}
	features := ds.Features()

	out := make([]BucketSummary, 0, 4)
	for _, b := range sel.Buckets() {
		explained, err := e.Attribute(ctx, attributor, model, ds, b.Indices)
		if err != nil {
			return nil, err
		}
		mean := ports.Attribution{Contributions: make(map[core.FeatureKey]float64, len(features))}
		for _, ex := range explained {
			mean.Bias += ex.Attribution.Bias
			for _, f := range features {
				mean.Contributions[f] += ex.Attribution.Contributions[f]
			}
		}
		n := float64(len(explained))
		mean.Bias /= n
		for _, f := range features {
			mean.Contributions[f] /= n
		}
		out = append(out, BucketSummary{Bucket: b.Name, Mean: mean})
	}
	return out, nil
}

func scaled(a ports.Attribution, factor float64) ports.Attribution {
	out := ports.Attribution{Bias: a.Bias * factor, Contributions: make(map[core.FeatureKey]float64, len(a.Contributions))}
	for f, v := range a.Contributions {
		out.Contributions[f] = v * factor
	}
	return out
}
