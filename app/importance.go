package app

import (
	"context"

	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/internal/permutation"
	"mintpy/ports"
)

// ImportanceRequest configures a permutation importance run.
type ImportanceRequest struct {
	// EvaluationFn names a built-in scorer; required unless Scorer is
	// set.
	EvaluationFn string
	// Scorer and Strategy allow a caller-supplied metric. A custom
	// scorer must declare its strategy explicitly.
	Scorer   ports.Scorer
	Strategy core.ScoringStrategy
	// NVars caps the multi-pass ranking length.
	NVars int
	// Direction defaults to backward.
	Direction  core.Direction
	Subsample  float64
	NBootstrap int
	NJobs      float64
	// MultiPass enables the greedy iterative ranking in addition to the
	// single pass.
	MultiPass bool
}

// PermutationImportance runs single-pass (and optionally multi-pass)
// permutation importance for every model. Per model the store holds the
// baseline distribution plus one labeled score matrix per pass: rows
// follow the ranking order, columns are bootstrap replicates.
func (t *Toolkit) PermutationImportance(ctx context.Context, req ImportanceRequest) (*result.Store, error) {
	cfg := permutation.Config{
		EvaluationFn: req.EvaluationFn,
		Scorer:       req.Scorer,
		Strategy:     req.Strategy,
		Direction:    req.Direction,
		NVars:        req.NVars,
		Subsample:    req.Subsample,
		NBootstrap:   req.NBootstrap,
		NJobs:        req.NJobs,
		RNG:          t.rng,
		Seed:         t.seed,
	}

	engine := permutation.New(t.output)

	var store *result.Store
	for _, modelKey := range t.models.Keys() {
		model, _ := t.models.Get(modelKey)

		var res *permutation.Result
		var err error
		if req.MultiPass {
			res, err = engine.MultiPass(ctx, model, t.data, cfg)
		} else {
			res, err = engine.SinglePass(ctx, model, t.data, cfg)
		}
		if err != nil {
			return nil, err
		}
		if store == nil {
			store = t.newStore(core.MethodPermutationImportance, func(m *result.Metadata) {
				m.Direction = res.Direction
				m.EvaluationFn = res.EvaluationFn
			})
		}

		original, err := result.NewGridTable(result.Key(core.FeatureKey("original_score"), modelKey, core.MethodPermutationImportance), res.Original)
		if err != nil {
			return nil, err
		}
		if err := store.Add(original); err != nil {
			return nil, err
		}

		if err := addRanking(store, result.Key(core.FeatureKey("singlepass"), modelKey, core.MethodPermutationImportance),
			res.SinglePassRanking, res.SinglePass); err != nil {
			return nil, err
		}
		if req.MultiPass {
			if err := addRanking(store, result.Key(core.FeatureKey("multipass"), modelKey, core.MethodPermutationImportance),
				res.MultiPassRanking, res.MultiPass); err != nil {
				return nil, err
			}
		}
	}
	t.cache.Put(core.MethodPermutationImportance, store)
	return store, nil
}

// addRanking stores score distributions as a labeled matrix in ranking
// order: Labels[i] names the feature behind row i.
func addRanking(store *result.Store, key string, ranking []core.FeatureKey, scores map[core.FeatureKey][]float64) error {
	if len(ranking) == 0 {
		return nil
	}
	width := len(scores[ranking[0]])
	flat := make([]float64, 0, len(ranking)*width)
	labels := make([]string, len(ranking))
	for i, f := range ranking {
		labels[i] = f.String()
		flat = append(flat, scores[f]...)
	}
	table, err := result.NewGridTable(key, flat, len(ranking), width)
	if err != nil {
		return err
	}
	table.Labels = labels
	return store.Add(table)
}
