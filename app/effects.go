package app

import (
	"context"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/domain/result"
	"mintpy/internal/ale"
	"mintpy/internal/bins"
	"mintpy/internal/pd"
)

// EffectsRequest configures ALE and PD sweeps.
type EffectsRequest struct {
	// Features to sweep; nil means every dataset feature.
	Features []core.FeatureKey
	// NBins is the per-feature grid resolution. Zero uses each engine's
	// default.
	NBins int
	// NBootstrap is the ALE replicate count; at most 1 disables
	// resampling.
	NBootstrap int
	// Subsample sizes each bootstrap replicate.
	Subsample float64
	// NJobs is the worker count or processor fraction.
	NJobs float64
}

// ALE computes first-order accumulated local effects for every model
// and feature. Continuous features get a bootstrap ensemble on a shared
// quantile grid; categorical features get a single curve over their
// sorted classes. One grid table per (feature, model) holds the curve
// rows, and each feature's coordinates live under its bin-values key.
func (t *Toolkit) ALE(ctx context.Context, req EffectsRequest) (*result.Store, error) {
	features, err := t.features(req.Features)
	if err != nil {
		return nil, err
	}
	engine := ale.New(t.output)
	engine.Binner = bins.Binner{NPoints: req.NBins}

	nb := req.NBootstrap
	if nb < 1 {
		nb = 1
	}
	store := t.newStore(core.MethodALE, func(m *result.Metadata) { m.Dimension = core.Dimension1D })

	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, feature := range features {
			dtype, err := t.data.DType(feature)
			if err != nil {
				return nil, err
			}

			var curves [][]float64
			var coords []float64
			if dtype == dataset.DTypeCategorical {
				curve, classes, err := engine.FirstOrderCategorical(ctx, model, t.data, feature)
				if err != nil {
					return nil, err
				}
				curves, coords = [][]float64{curve}, classes
			} else {
				ensemble, edges, err := engine.Bootstrap(ctx, model, t.data, feature, ale.BootstrapOptions{
					NBootstrap: nb,
					Subsample:  req.Subsample,
					NJobs:      req.NJobs,
					RNG:        t.rng,
					Seed:       t.seed,
				})
				if err != nil {
					return nil, err
				}
				curves, coords = ensemble, bins.Midpoints(edges)
			}

			flat := make([]float64, 0, len(curves)*len(curves[0]))
			for _, c := range curves {
				flat = append(flat, c...)
			}
			table, err := result.NewGridTable(result.Key(feature, modelKey, core.MethodALE), flat, len(curves), len(curves[0]))
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
			if err := addBins(store, feature, coords); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodALE, store)
	return store, nil
}

// ALE2D computes second-order ALE surfaces for the given feature pairs.
func (t *Toolkit) ALE2D(ctx context.Context, pairs []core.FeaturePair, req EffectsRequest) (*result.Store, error) {
	if len(pairs) == 0 {
		return nil, core.NewConfigurationError("no feature pairs given")
	}
	engine := ale.New(t.output)
	engine.Binner = bins.Binner{NPoints: req.NBins}

	store := t.newStore(core.MethodALE, func(m *result.Metadata) { m.Dimension = core.Dimension2D })
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, pair := range pairs {
			grid, edges, err := engine.SecondOrder(ctx, model, t.data, pair, [2][]float64{})
			if err != nil {
				return nil, err
			}
			flat := make([]float64, 0, len(grid)*len(grid[0]))
			for _, row := range grid {
				flat = append(flat, row...)
			}
			table, err := result.NewGridTable(result.Key(pair, modelKey, core.MethodALE), flat, len(grid), len(grid[0]))
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
			if err := addBins(store, pair.First, bins.Midpoints(edges[0])); err != nil {
				return nil, err
			}
			if err := addBins(store, pair.Second, bins.Midpoints(edges[1])); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodALE, store)
	return store, nil
}

// PartialDependence computes first-order PD curves. Unlike ALE, the
// stored values are raw model outputs on an evenly spaced grid.
func (t *Toolkit) PartialDependence(ctx context.Context, req EffectsRequest) (*result.Store, error) {
	features, err := t.features(req.Features)
	if err != nil {
		return nil, err
	}
	engine := pd.New(t.output)
	if req.NBins > 1 {
		engine.NBins = req.NBins
	}

	store := t.newStore(core.MethodPD, func(m *result.Metadata) { m.Dimension = core.Dimension1D })
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, feature := range features {
			curve, grid, err := engine.FirstOrder(ctx, model, t.data, feature)
			if err != nil {
				return nil, err
			}
			table, err := result.NewGridTable(result.Key(feature, modelKey, core.MethodPD), curve)
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
			if err := addBins(store, feature, grid); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodPD, store)
	return store, nil
}

// PartialDependence2D computes joint PD surfaces for feature pairs.
func (t *Toolkit) PartialDependence2D(ctx context.Context, pairs []core.FeaturePair, req EffectsRequest) (*result.Store, error) {
	if len(pairs) == 0 {
		return nil, core.NewConfigurationError("no feature pairs given")
	}
	engine := pd.New(t.output)
	if req.NBins > 1 {
		engine.NBins = req.NBins
	}

	store := t.newStore(core.MethodPD, func(m *result.Metadata) { m.Dimension = core.Dimension2D })
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, pair := range pairs {
			surface, grids, err := engine.SecondOrder(ctx, model, t.data, pair)
			if err != nil {
				return nil, err
			}
			flat := make([]float64, 0, len(surface)*len(surface[0]))
			for _, row := range surface {
				flat = append(flat, row...)
			}
			table, err := result.NewGridTable(result.Key(pair, modelKey, core.MethodPD), flat, len(surface), len(surface[0]))
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
			if err := addBins(store, pair.First, grids[0]); err != nil {
				return nil, err
			}
			if err := addBins(store, pair.Second, grids[1]); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodPD, store)
	return store, nil
}

// ICE computes per-example conditional expectation curves, one row per
// example on the PD grid.
func (t *Toolkit) ICE(ctx context.Context, req EffectsRequest) (*result.Store, error) {
	features, err := t.features(req.Features)
	if err != nil {
		return nil, err
	}
	engine := pd.New(t.output)
	if req.NBins > 1 {
		engine.NBins = req.NBins
	}

	store := t.newStore(core.MethodICE, func(m *result.Metadata) { m.Dimension = core.Dimension1D })
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, feature := range features {
			curves, grid, err := engine.ICE(ctx, model, t.data, feature)
			if err != nil {
				return nil, err
			}
			flat := make([]float64, 0, len(curves)*len(grid))
			for _, c := range curves {
				flat = append(flat, c...)
			}
			table, err := result.NewGridTable(result.Key(feature, modelKey, core.MethodICE), flat, len(curves), len(grid))
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
			if err := addBins(store, feature, grid); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodICE, store)
	return store, nil
}
