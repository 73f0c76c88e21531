// Package app wires the diagnostic engines behind one facade. A Toolkit
// binds a model set, a dataset, and an output mode at construction and
// exposes each diagnostic as a method returning a result store.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/domain/result"
	"mintpy/internal/sampling"
	"mintpy/ports"
)

// Options configures a Toolkit.
type Options struct {
	Models *ports.ModelSet
	Data   *dataset.Dataset
	// Output selects raw scores or positive-class probabilities for the
	// whole session. Empty defaults to raw.
	Output core.ModelOutput
	// Seed drives every deterministic resampling stream.
	Seed int64
	// RNG overrides the default named-stream generator, mostly in tests.
	RNG ports.RNG
	Log zerolog.Logger
}

// Toolkit is the session facade. All validation that can fail early
// happens at construction: a probability-mode session with a model that
// cannot emit probabilities is rejected here, not at first use.
type Toolkit struct {
	models *ports.ModelSet
	data   *dataset.Dataset
	output core.ModelOutput
	seed   int64
	rng    ports.RNG
	log    zerolog.Logger
	cache  *ResultCache
}

// New validates the options and builds a session.
func New(opts Options) (*Toolkit, error) {
	if opts.Models == nil || opts.Models.Len() == 0 {
		return nil, core.NewConfigurationError("at least one model is required")
	}
	if opts.Data == nil || opts.Data.Len() == 0 {
		return nil, core.NewConfigurationError("a non-empty dataset is required")
	}
	output := opts.Output
	if output == "" {
		output = core.OutputRaw
	}
	if !output.Valid() {
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown model output mode %q", output))
	}
	if output == core.OutputProbability {
		for _, key := range opts.Models.Keys() {
			m, _ := opts.Models.Get(key)
			if _, ok := m.(ports.ProbabilityModel); !ok {
				return nil, core.NewConfigurationError(fmt.Sprintf(
					"probability output requested but model %q has no probability capability", key))
			}
		}
	}
	rng := opts.RNG
	if rng == nil {
		rng = sampling.NewRNG()
	}
	return &Toolkit{
		models: opts.Models,
		data:   opts.Data,
		output: output,
		seed:   opts.Seed,
		rng:    rng,
		log:    opts.Log,
		cache:  NewResultCache(),
	}, nil
}

// Output returns the session's output mode.
func (t *Toolkit) Output() core.ModelOutput { return t.output }

// Data returns the session dataset.
func (t *Toolkit) Data() *dataset.Dataset { return t.data }

// Models returns the session model set.
func (t *Toolkit) Models() *ports.ModelSet { return t.models }

// Cached returns the most recent store computed for a method, if any.
func (t *Toolkit) Cached(method core.Method) (*result.Store, bool) {
	return t.cache.Get(method)
}

// newStore stamps a fresh store with session metadata. Stores are only
// cached after the computation fully succeeds, so a failed run never
// leaves partial results behind.
func (t *Toolkit) newStore(method core.Method, extra func(*result.Metadata)) *result.Store {
	meta := result.Metadata{
		ModelOutput: t.output,
		ModelsUsed:  t.models.Keys(),
		Method:      method,
	}
	if extra != nil {
		extra(&meta)
	}
	return result.NewStore(meta)
}

// features resolves an explicit feature list, defaulting to every
// dataset feature, and verifies each one exists.
func (t *Toolkit) features(requested []core.FeatureKey) ([]core.FeatureKey, error) {
	if requested == nil {
		return t.data.Features(), nil
	}
	for _, f := range requested {
		if !t.data.Has(f) {
			return nil, core.NewInvalidFeatureError(f, "not in dataset")
		}
	}
	return requested, nil
}

// addBins stores a coordinate table under "{feature}__bin_values",
// skipping keys already present: multiple models and overlapping pairs
// legitimately share one grid per feature within a single store.
func addBins(store *result.Store, feature fmt.Stringer, values []float64) error {
	key := result.BinKey(feature)
	if _, ok := store.Get(key); ok {
		return nil
	}
	table, err := result.NewGridTable(key, values)
	if err != nil {
		return err
	}
	return store.Add(table)
}
