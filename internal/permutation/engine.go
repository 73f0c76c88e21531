// Package permutation ranks features by the performance change incurred
// when their values are permuted: single-pass scores per feature and
// the greedy multi-pass ranking, with subsampling, bootstrapping, and a
// pluggable scoring strategy.
package permutation

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/internal/pool"
	"mintpy/internal/sampling"
	"mintpy/internal/score"
	"mintpy/ports"
)

// Config is the per-call configuration surface.
type Config struct {
	// EvaluationFn names a built-in scorer (auc, auprc, bss, mse,
	// norm_aupdc). Ignored when Scorer is set.
	EvaluationFn string
	// Scorer is a caller-supplied evaluation function. Requires an
	// explicit Strategy: direction cannot be inferred from an opaque
	// function.
	Scorer ports.Scorer
	// Strategy selects the extremum rule. Optional for built-ins,
	// which come pre-bound.
	Strategy core.ScoringStrategy
	// Direction: backward permutes against an intact baseline,
	// forward restores features from a fully permuted state.
	Direction core.Direction
	// NVars caps the multi-pass ranking length.
	NVars int
	// Subsample draws a fixed scoring subset (without replacement)
	// shared across all features within the call.
	Subsample float64
	// NBootstrap sizes each feature's score distribution; 1 means a
	// single shuffle per feature.
	NBootstrap int
	// NJobs is the worker count or processor fraction for the
	// per-feature scoring inside one round.
	NJobs float64

	RNG  ports.RNG
	Seed int64
}

// Result holds the importance scores and rankings for one model.
type Result struct {
	// Original is the unpermuted (backward) or fully permuted
	// (forward) baseline score, one value per bootstrap replicate.
	Original []float64
	// SinglePass maps each feature to its score distribution.
	SinglePass map[core.FeatureKey][]float64
	// SinglePassRanking orders features by decreasing importance.
	SinglePassRanking []core.FeatureKey
	// MultiPass maps each selected feature to the score distribution
	// recorded in its selection round.
	MultiPass map[core.FeatureKey][]float64
	// MultiPassRanking is the greedy selection order.
	MultiPassRanking []core.FeatureKey

	EvaluationFn string
	Strategy     core.ScoringStrategy
	Direction    core.Direction
}

// Engine scores permuted datasets through one output mode.
type Engine struct {
	Output core.ModelOutput
}

// New creates a permutation engine.
func New(output core.ModelOutput) *Engine {
	return &Engine{Output: output}
}

// session is the immutable per-call scoring state: the (possibly
// subsampled) scoring set, the bootstrap replicates shared across all
// features, and the resolved scorer.
type session struct {
	engine     *Engine
	model      ports.Model
	ds         *dataset.Dataset
	features   []core.FeatureKey
	replicates [][]int // row index sets, one per bootstrap replicate
	scorer     ports.Scorer
	scorerName string
	strategy   core.ScoringStrategy
	direction  core.Direction
	workers    int
	rng        ports.RNG
	seed       int64
}

func (e *Engine) newSession(model ports.Model, ds *dataset.Dataset, cfg Config) (*session, error) {
	scorer := cfg.Scorer
	name := cfg.EvaluationFn
	strategy := cfg.Strategy
	if scorer != nil {
		if !strategy.Valid() {
			return nil, core.NewConfigurationError("a custom evaluation function requires an explicit scoring strategy")
		}
		if name == "" {
			name = "custom"
		}
	} else {
		if name == "" {
			return nil, core.NewConfigurationError("no evaluation function given")
		}
		binding, err := score.Lookup(name)
		if err != nil {
			return nil, err
		}
		scorer = binding.Fn
		name = binding.Name
		if !strategy.Valid() {
			strategy = binding.Strategy
		}
	}

	direction := cfg.Direction
	if direction == "" {
		direction = core.DirectionBackward
	}
	if !direction.Valid() {
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown direction %q", direction))
	}
	if ds.Targets() == nil {
		return nil, core.NewConfigurationError("permutation importance requires targets")
	}

	rng := cfg.RNG
	if rng == nil {
		rng = sampling.NewRNG()
	}

	scoring := ds
	if size := sampling.ResolveSize(ds.Len(), cfg.Subsample); size < ds.Len() {
		r := rng.Stream("permutation/subsample", cfg.Seed)
		scoring = ds.Subset(sampling.WithoutReplacement(r, ds.Len(), size))
	}

	nb := cfg.NBootstrap
	if nb < 1 {
		nb = 1
	}
	replicates := make([][]int, nb)
	for b := range replicates {
		if nb == 1 {
			idx := make([]int, scoring.Len())
			for i := range idx {
				idx[i] = i
			}
			replicates[b] = idx
			continue
		}
		r := rng.Stream(fmt.Sprintf("permutation/bootstrap/%d", b), cfg.Seed)
		replicates[b] = sampling.WithReplacement(r, scoring.Len(), scoring.Len())
	}

	return &session{
		engine:     e,
		model:      model,
		ds:         scoring,
		features:   scoring.Features(),
		replicates: replicates,
		scorer:     scorer,
		scorerName: name,
		strategy:   strategy,
		direction:  direction,
		workers:    pool.Resolve(cfg.NJobs),
		rng:        rng,
		seed:       cfg.Seed,
	}, nil
}

// scoreWithPermuted scores the model once per replicate with the given
// features permuted. A feature's shuffle is keyed by (feature,
// replicate) only, so a selected feature keeps the identical
// permutation through every later round.
func (s *session) scoreWithPermuted(permuted []core.FeatureKey) ([]float64, error) {
	permutedSet := make(map[core.FeatureKey]struct{}, len(permuted))
	for _, f := range permuted {
		permutedSet[f] = struct{}{}
	}

	targets := s.ds.Targets()
	scores := make([]float64, len(s.replicates))
	for b, rows := range s.replicates {
		batch := s.ds.Rows(rows)
		y := make([]float64, len(rows))
		for i, r := range rows {
			y[i] = targets[r]
		}
		for _, f := range s.features {
			if _, ok := permutedSet[f]; !ok {
				continue
			}
			col, err := s.ds.Index(f)
			if err != nil {
				return nil, err
			}
			values := make([]float64, len(batch))
			for i := range batch {
				values[i] = batch[i][col]
			}
			r := s.rng.Stream(fmt.Sprintf("permutation/shuffle/%s/%d", f, b), s.seed)
			shuffled := sampling.Shuffled(r, values)
			for i := range batch {
				batch[i][col] = shuffled[i]
			}
		}
		preds, err := ports.Score(s.model, batch, s.engine.Output)
		if err != nil {
			return nil, err
		}
		scores[b] = s.scorer(y, preds)
	}
	return scores, nil
}

// permutedFor translates round state into the permuted set for one
// candidate: backward permutes fixed+candidate, forward permutes
// everything except fixed+candidate.
func (s *session) permutedFor(fixed []core.FeatureKey, candidate core.FeatureKey) []core.FeatureKey {
	if s.direction == core.DirectionBackward {
		out := append([]core.FeatureKey(nil), fixed...)
		return append(out, candidate)
	}
	keep := make(map[core.FeatureKey]struct{}, len(fixed)+1)
	for _, f := range fixed {
		keep[f] = struct{}{}
	}
	keep[candidate] = struct{}{}
	var out []core.FeatureKey
	for _, f := range s.features {
		if _, ok := keep[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// selectionStrategy is the extremum rule actually applied to candidate
// scores. Forward inverts it: restoring the most important feature
// moves the score the other way.
func (s *session) selectionStrategy() core.ScoringStrategy {
	if s.direction == core.DirectionForward {
		return s.strategy.Invert()
	}
	return s.strategy
}

// baseline returns the reference score distribution: intact data for
// backward, all features permuted for forward.
func (s *session) baseline() ([]float64, error) {
	if s.direction == core.DirectionBackward {
		return s.scoreWithPermuted(nil)
	}
	return s.scoreWithPermuted(s.features)
}

// SinglePass computes each feature's score distribution independently
// and ranks features by decreasing importance. Features are scored in
// parallel; results are keyed by feature name, never by completion
// order.
func (e *Engine) SinglePass(ctx context.Context, model ports.Model, ds *dataset.Dataset, cfg Config) (*Result, error) {
	s, err := e.newSession(model, ds, cfg)
	if err != nil {
		return nil, err
	}
	original, err := s.baseline()
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRound(ctx, nil, s.features)
	if err != nil {
		return nil, err
	}
	return &Result{
		Original:          original,
		SinglePass:        scores,
		SinglePassRanking: s.rank(scores, s.features),
		EvaluationFn:      s.scorerName,
		Strategy:          s.strategy,
		Direction:         s.direction,
	}, nil
}

// MultiPass runs the greedy iterative ranking: each round scores every
// remaining candidate with all previously selected features permanently
// permuted (backward) or restored (forward), fixes the extremum, and
// repeats. Rounds are strictly sequential; only the per-candidate
// scoring inside a round runs in parallel.
func (e *Engine) MultiPass(ctx context.Context, model ports.Model, ds *dataset.Dataset, cfg Config) (*Result, error) {
	s, err := e.newSession(model, ds, cfg)
	if err != nil {
		return nil, err
	}

	nVars := cfg.NVars
	if nVars <= 0 || nVars > len(s.features) {
		nVars = len(s.features)
	}

	original, err := s.baseline()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Original:     original,
		MultiPass:    make(map[core.FeatureKey][]float64, nVars),
		EvaluationFn: s.scorerName,
		Strategy:     s.strategy,
		Direction:    s.direction,
	}

	var fixed []core.FeatureKey
	remaining := append([]core.FeatureKey(nil), s.features...)
	for round := 0; round < nVars; round++ {
		scores, err := s.scoreRound(ctx, fixed, remaining)
		if err != nil {
			return nil, err
		}
		if round == 0 {
			// Round 1 with nothing fixed is exactly the single pass.
			result.SinglePass = scores
			result.SinglePassRanking = s.rank(scores, remaining)
		}
		selected := s.rank(scores, remaining)[0]
		result.MultiPass[selected] = scores[selected]
		result.MultiPassRanking = append(result.MultiPassRanking, selected)
		fixed = append(fixed, selected)
		remaining = remove(remaining, selected)
	}
	return result, nil
}

// ScorePermuted scores the model with exactly the given features
// permuted, one score per bootstrap replicate. Used by the
// performance-based interaction ranking, which needs joint
// permutations of feature pairs.
func (e *Engine) ScorePermuted(model ports.Model, ds *dataset.Dataset, cfg Config, permuted []core.FeatureKey) ([]float64, error) {
	s, err := e.newSession(model, ds, cfg)
	if err != nil {
		return nil, err
	}
	return s.scoreWithPermuted(permuted)
}

// scoreRound evaluates every candidate against the current fixed set.
func (s *session) scoreRound(ctx context.Context, fixed, candidates []core.FeatureKey) (map[core.FeatureKey][]float64, error) {
	distributions := make([][]float64, len(candidates))
	err := pool.Run(ctx, s.workers, len(candidates), func(i int) error {
		scores, err := s.scoreWithPermuted(s.permutedFor(fixed, candidates[i]))
		if err != nil {
			return fmt.Errorf("scoring feature %s: %w", candidates[i], err)
		}
		distributions[i] = scores
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[core.FeatureKey][]float64, len(candidates))
	for i, f := range candidates {
		out[f] = distributions[i]
	}
	return out, nil
}

// rank orders candidates by mean score under the selection strategy,
// most important first. The sort is stable, so ties keep feature
// insertion order.
func (s *session) rank(scores map[core.FeatureKey][]float64, candidates []core.FeatureKey) []core.FeatureKey {
	out := append([]core.FeatureKey(nil), candidates...)
	means := make(map[core.FeatureKey]float64, len(candidates))
	for _, f := range candidates {
		means[f] = stat.Mean(scores[f], nil)
	}
	asc := s.selectionStrategy() == core.ArgminOfMean
	sort.SliceStable(out, func(a, b int) bool {
		if asc {
			return means[out[a]] < means[out[b]]
		}
		return means[out[a]] > means[out[b]]
	})
	return out
}

func remove(features []core.FeatureKey, f core.FeatureKey) []core.FeatureKey {
	out := features[:0]
	for _, g := range features {
		if g != f {
			out = append(out, g)
		}
	}
	return out
}
