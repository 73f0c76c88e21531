package ale

import (
	"context"
	"fmt"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/internal/pool"
	"mintpy/internal/sampling"
	"mintpy/ports"
)

// BootstrapOptions configures the resampling ensemble.
type BootstrapOptions struct {
	// NBootstrap is the number of replicate curves; 1 means no
	// resampling and returns the plain first-order curve.
	NBootstrap int
	// Subsample sizes each replicate: fraction of N in (0, 1],
	// absolute count above 1.
	Subsample float64
	// NJobs is the worker count (integer) or processor fraction
	// (float below 1).
	NJobs float64
	// RNG and Seed drive the replicate index draws.
	RNG  ports.RNG
	Seed int64
}

// Bootstrap computes an ensemble of first-order ALE curves over
// resamples drawn with replacement. One quantile grid is computed from
// the full dataset and shared by every replicate, so all curves sit on
// identical bin edges and can be averaged or turned into percentile
// confidence intervals downstream. The full ensemble is returned, not
// a summary.
func (e *Engine) Bootstrap(ctx context.Context, model ports.Model, ds *dataset.Dataset, feature core.FeatureKey, opts BootstrapOptions) (curves [][]float64, edges []float64, err error) {
	if opts.NBootstrap < 1 {
		return nil, nil, core.NewConfigurationError("n_bootstrap must be at least 1")
	}
	if opts.RNG == nil {
		opts.RNG = sampling.NewRNG()
	}

	column, err := ds.Column(feature)
	if err != nil {
		return nil, nil, err
	}
	edges, err = e.Binner.Edges1D(feature, column)
	if err != nil {
		return nil, nil, err
	}

	if opts.NBootstrap == 1 {
		curve, _, err := e.FirstOrder(ctx, model, ds, feature, edges)
		if err != nil {
			return nil, nil, err
		}
		return [][]float64{curve}, edges, nil
	}

	size := sampling.ResolveSize(ds.Len(), opts.Subsample)
	workers := pool.Resolve(opts.NJobs)
	curves = make([][]float64, opts.NBootstrap)

	err = pool.Run(ctx, workers, opts.NBootstrap, func(i int) error {
		r := opts.RNG.Stream(fmt.Sprintf("ale_bootstrap/%s/%d", feature, i), opts.Seed)
		idx := sampling.WithReplacement(r, ds.Len(), size)
		curve, _, err := e.FirstOrder(ctx, model, ds.Subset(idx), feature, edges)
		if err != nil {
			return fmt.Errorf("bootstrap replicate %d: %w", i, err)
		}
		curves[i] = curve
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return curves, edges, nil
}
