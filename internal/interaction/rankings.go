package interaction

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/internal/permutation"
	"mintpy/internal/pool"
	"mintpy/ports"
)

// Ranked is one entry of a feature or pair ranking.
type Ranked struct {
	Name  string
	Score float64
}

// ALEVarianceRanking ranks features by the standard deviation of their
// first-order ALE curve: a flat curve means the feature barely moves
// the prediction. Descending order; ties keep the input (insertion)
// order via the stable sort.
func ALEVarianceRanking(curves []Curve) []Ranked {
	out := make([]Ranked, len(curves))
	for i, c := range curves {
		out[i] = Ranked{Name: c.Feature.String(), Score: stat.StdDev(c.Values, nil)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// ALEVarianceInteractionRanking ranks feature pairs by the standard
// deviation of their second-order ALE surface.
func ALEVarianceInteractionRanking(surfaces []Surface) ([]Ranked, error) {
	if len(surfaces) == 0 {
		return nil, core.NewMissingPrecursorError(core.MethodALEVariance, core.MethodALE)
	}
	out := make([]Ranked, len(surfaces))
	for i, s := range surfaces {
		var flat []float64
		for _, row := range s.Values {
			flat = append(flat, row...)
		}
		out[i] = Ranked{Name: s.Pair.String(), Score: stat.StdDev(flat, nil)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, nil
}

// PerformanceBasedInteraction ranks feature pairs by the joint
// permutation synergy of Oh (2019): the performance degradation from
// permuting both features together, minus the sum of their individual
// degradations. Additive pairs land near zero; synergistic pairs stick
// out. Pairs are scored in parallel and ranked descending.
func PerformanceBasedInteraction(ctx context.Context, engine *permutation.Engine, model ports.Model, ds *dataset.Dataset, cfg permutation.Config, pairs []core.FeaturePair) ([]Ranked, error) {
	if len(pairs) == 0 {
		return nil, core.NewConfigurationError("no feature pairs given")
	}

	base, err := engine.ScorePermuted(model, ds, cfg, nil)
	if err != nil {
		return nil, err
	}
	baseMean := stat.Mean(base, nil)

	degradation := func(features []core.FeatureKey) (float64, error) {
		scores, err := engine.ScorePermuted(model, ds, cfg, features)
		if err != nil {
			return 0, err
		}
		return math.Abs(stat.Mean(scores, nil) - baseMean), nil
	}

	single := make(map[core.FeatureKey]float64)
	for _, p := range pairs {
		for _, f := range []core.FeatureKey{p.First, p.Second} {
			if _, done := single[f]; done {
				continue
			}
			d, err := degradation([]core.FeatureKey{f})
			if err != nil {
				return nil, err
			}
			single[f] = d
		}
	}

	out := make([]Ranked, len(pairs))
	workers := pool.Resolve(cfg.NJobs)
	err = pool.Run(ctx, workers, len(pairs), func(i int) error {
		p := pairs[i]
		joint, err := degradation([]core.FeatureKey{p.First, p.Second})
		if err != nil {
			return fmt.Errorf("pair %s: %w", p, err)
		}
		out[i] = Ranked{Name: p.String(), Score: joint - single[p.First] - single[p.Second]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, nil
}
