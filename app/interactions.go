package app

import (
	"context"
	"math"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/domain/result"
	"mintpy/internal/ale"
	"mintpy/internal/bins"
	"mintpy/internal/interaction"
	"mintpy/internal/pd"
	"mintpy/internal/permutation"
	"mintpy/ports"
)

// InteractionRequest configures the interaction diagnostics.
type InteractionRequest struct {
	// Pairs to analyze where the diagnostic is pairwise. Nil means all
	// unordered feature pairs.
	Pairs []core.FeaturePair
	// NBins is the effect-grid resolution.
	NBins int
	// Importance configures the permutation scoring behind the
	// performance-based ranking.
	Importance ImportanceRequest
	// MEC bounds the main-effect-complexity fit; zero value uses the
	// defaults.
	MEC interaction.MECOptions
}

// aleCurves computes one first-order ALE curve per feature for a model,
// with the coordinates needed to evaluate the curve at observed values.
// Categorical curves carry their sorted class values in place of edges.
func (t *Toolkit) aleCurves(ctx context.Context, modelKey core.ModelKey, nBins int) ([]interaction.Curve, error) {
	model, ok := t.models.Get(modelKey)
	if !ok {
		return nil, core.NewConfigurationError("unknown model " + modelKey.String())
	}
	engine := ale.New(t.output)
	engine.Binner = bins.Binner{NPoints: nBins}

	var curves []interaction.Curve
	for _, feature := range t.data.Features() {
		dtype, err := t.data.DType(feature)
		if err != nil {
			return nil, err
		}
		var values, edges []float64
		if dtype == dataset.DTypeCategorical {
			values, edges, err = engine.FirstOrderCategorical(ctx, model, t.data, feature)
		} else {
			values, edges, err = engine.FirstOrder(ctx, model, t.data, feature, nil)
		}
		if err != nil {
			return nil, err
		}
		curves = append(curves, interaction.Curve{Feature: feature, Values: values, Edges: edges})
	}
	return curves, nil
}

// allPairs enumerates unordered feature pairs in dataset order.
func (t *Toolkit) allPairs() []core.FeaturePair {
	features := t.data.Features()
	var pairs []core.FeaturePair
	for i := 0; i < len(features); i++ {
		for j := i + 1; j < len(features); j++ {
			pairs = append(pairs, core.FeaturePair{First: features[i], Second: features[j]})
		}
	}
	return pairs
}

func (t *Toolkit) resolvePairs(pairs []core.FeaturePair) ([]core.FeaturePair, error) {
	if pairs == nil {
		pairs = t.allPairs()
	}
	for _, p := range pairs {
		for _, f := range []core.FeatureKey{p.First, p.Second} {
			if !t.data.Has(f) {
				return nil, core.NewInvalidFeatureError(f, "not in dataset")
			}
		}
	}
	return pairs, nil
}

// InteractionStrength computes the IAS statistic per model: the
// fraction of prediction variance unexplained by an additive
// reconstruction from first-order ALE curves.
func (t *Toolkit) InteractionStrength(ctx context.Context, req InteractionRequest) (*result.Store, error) {
	store := t.newStore(core.MethodInteractionStrength, nil)
	for _, modelKey := range t.models.Keys() {
		curves, err := t.aleCurves(ctx, modelKey, req.NBins)
		if err != nil {
			return nil, err
		}
		model, _ := t.models.Get(modelKey)
		ias, err := interaction.InteractionStrength(ctx, model, t.data, t.output, curves)
		if err != nil {
			return nil, err
		}
		table, err := result.NewGridTable(result.Key(core.FeatureKey("ias"), modelKey, core.MethodInteractionStrength), []float64{ias})
		if err != nil {
			return nil, err
		}
		if err := store.Add(table); err != nil {
			return nil, err
		}
	}
	t.cache.Put(core.MethodInteractionStrength, store)
	return store, nil
}

// FriedmanH computes the pairwise H statistic per model from partial
// dependence curves and surfaces on a shared grid. Stored values are H,
// the square root of the variance ratio.
func (t *Toolkit) FriedmanH(ctx context.Context, req InteractionRequest) (*result.Store, error) {
	pairs, err := t.resolvePairs(req.Pairs)
	if err != nil {
		return nil, err
	}
	engine := pd.New(t.output)
	if req.NBins > 1 {
		engine.NBins = req.NBins
	}

	store := t.newStore(core.MethodHStatistic, func(m *result.Metadata) { m.Dimension = core.Dimension2D })
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		for _, pair := range pairs {
			joint, grids, err := engine.SecondOrder(ctx, model, t.data, pair)
			if err != nil {
				return nil, err
			}
			// The 1D curves must sit on the 2D grid, so sweep them
			// explicitly instead of reusing the wider 1D trim.
			first, err := t.sweepOnGrid(ctx, model, pair.First, grids[0])
			if err != nil {
				return nil, err
			}
			second, err := t.sweepOnGrid(ctx, model, pair.Second, grids[1])
			if err != nil {
				return nil, err
			}
			h2, err := interaction.FriedmanHStatistic(first, second, joint)
			if err != nil {
				return nil, err
			}
			table, err := result.NewGridTable(result.Key(pair, modelKey, core.MethodHStatistic), []float64{math.Sqrt(h2)})
			if err != nil {
				return nil, err
			}
			if err := store.Add(table); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodHStatistic, store)
	return store, nil
}

// sweepOnGrid computes a 1D PD curve on an explicit grid.
func (t *Toolkit) sweepOnGrid(ctx context.Context, model ports.Model, feature core.FeatureKey, grid []float64) ([]float64, error) {
	col, err := t.data.Index(feature)
	if err != nil {
		return nil, err
	}
	base := t.data.Matrix()
	curve := make([]float64, len(grid))
	for j, value := range grid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for r := range base {
			base[r][col] = value
		}
		preds, err := ports.Score(model, base, t.output)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, p := range preds {
			sum += p
		}
		curve[j] = sum / float64(len(preds))
	}
	return curve, nil
}

// ALEVariance ranks single features and feature pairs by the spread of
// their ALE curves and surfaces.
func (t *Toolkit) ALEVariance(ctx context.Context, req InteractionRequest) (*result.Store, error) {
	pairs, err := t.resolvePairs(req.Pairs)
	if err != nil {
		return nil, err
	}
	engine := ale.New(t.output)
	engine.Binner = bins.Binner{NPoints: req.NBins}

	store := t.newStore(core.MethodALEVariance, nil)
	for _, modelKey := range t.models.Keys() {
		curves, err := t.aleCurves(ctx, modelKey, req.NBins)
		if err != nil {
			return nil, err
		}
		ranked := interaction.ALEVarianceRanking(curves)
		if err := addRankedTable(store, result.Key(core.FeatureKey("features"), modelKey, core.MethodALEVariance), ranked); err != nil {
			return nil, err
		}

		model, _ := t.models.Get(modelKey)
		var surfaces []interaction.Surface
		for _, pair := range pairs {
			grid, _, err := engine.SecondOrder(ctx, model, t.data, pair, [2][]float64{})
			if err != nil {
				return nil, err
			}
			surfaces = append(surfaces, interaction.Surface{Pair: pair, Values: grid})
		}
		rankedPairs, err := interaction.ALEVarianceInteractionRanking(surfaces)
		if err != nil {
			return nil, err
		}
		if err := addRankedTable(store, result.Key(core.FeatureKey("pairs"), modelKey, core.MethodALEVariance), rankedPairs); err != nil {
			return nil, err
		}
	}
	t.cache.Put(core.MethodALEVariance, store)
	return store, nil
}

// PerformanceBasedInteraction ranks feature pairs by joint permutation
// synergy for every model.
func (t *Toolkit) PerformanceBasedInteraction(ctx context.Context, req InteractionRequest) (*result.Store, error) {
	pairs, err := t.resolvePairs(req.Pairs)
	if err != nil {
		return nil, err
	}
	cfg := permutation.Config{
		EvaluationFn: req.Importance.EvaluationFn,
		Scorer:       req.Importance.Scorer,
		Strategy:     req.Importance.Strategy,
		Direction:    req.Importance.Direction,
		Subsample:    req.Importance.Subsample,
		NBootstrap:   req.Importance.NBootstrap,
		NJobs:        req.Importance.NJobs,
		RNG:          t.rng,
		Seed:         t.seed,
	}
	engine := permutation.New(t.output)

	store := t.newStore(core.MethodPerformanceBased, func(m *result.Metadata) {
		m.EvaluationFn = req.Importance.EvaluationFn
	})
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)
		ranked, err := interaction.PerformanceBasedInteraction(ctx, engine, model, t.data, cfg, pairs)
		if err != nil {
			return nil, err
		}
		if err := addRankedTable(store, result.Key(core.FeatureKey("pairs"), modelKey, core.MethodPerformanceBased), ranked); err != nil {
			return nil, err
		}
	}
	t.cache.Put(core.MethodPerformanceBased, store)
	return store, nil
}

// MainEffectComplexity computes the MEC score per model plus the
// per-feature linear segment counts behind it.
func (t *Toolkit) MainEffectComplexity(ctx context.Context, req InteractionRequest) (*result.Store, error) {
	opts := req.MEC
	if opts.MaxSegments == 0 && opts.ApproxError == 0 {
		opts = interaction.DefaultMECOptions()
	}

	store := t.newStore(core.MethodMainEffectComplexity, nil)
	for _, modelKey := range t.models.Keys() {
		curves, err := t.aleCurves(ctx, modelKey, req.NBins)
		if err != nil {
			return nil, err
		}
		mec, counts := interaction.MainEffectComplexity(curves, opts)

		table, err := result.NewGridTable(result.Key(core.FeatureKey("mec"), modelKey, core.MethodMainEffectComplexity), []float64{mec})
		if err != nil {
			return nil, err
		}
		if err := store.Add(table); err != nil {
			return nil, err
		}

		features := t.data.Features()
		labels := make([]string, len(features))
		values := make([]float64, len(features))
		for i, f := range features {
			labels[i] = f.String()
			values[i] = float64(counts[f])
		}
		segTable, err := result.NewGridTable(result.Key(core.FeatureKey("segments"), modelKey, core.MethodMainEffectComplexity), values)
		if err != nil {
			return nil, err
		}
		segTable.Labels = labels
		if err := store.Add(segTable); err != nil {
			return nil, err
		}
	}
	t.cache.Put(core.MethodMainEffectComplexity, store)
	return store, nil
}

// addRankedTable stores a ranking as a labeled score vector.
func addRankedTable(store *result.Store, key string, ranked []interaction.Ranked) error {
	labels := make([]string, len(ranked))
	values := make([]float64, len(ranked))
	for i, r := range ranked {
		labels[i] = r.Name
		values[i] = r.Score
	}
	table, err := result.NewGridTable(key, values)
	if err != nil {
		return err
	}
	table.Labels = labels
	return store.Add(table)
}
