package ports

import (
	"fmt"

	"mintpy/domain/core"
)

// Model is the wrapped predictive model collaborator. Any trained model
// exposing a raw-score prediction over a 2D numeric batch satisfies it;
// the toolkit never looks inside.
type Model interface {
	// Predict returns one raw regression/decision score per input row.
	Predict(batch [][]float64) ([]float64, error)
}

// ProbabilityModel is the optional classification capability. Engines
// consume column index 1, the positive-class probability, when the
// session runs in probability output mode.
type ProbabilityModel interface {
	Model
	// PredictProba returns per-example per-class probabilities.
	PredictProba(batch [][]float64) ([][]float64, error)
}

// ModelSet maps unique model names to models. Iteration follows
// insertion order so multi-model results are deterministic.
type ModelSet struct {
	keys   []core.ModelKey
	models map[core.ModelKey]Model
}

// NewModelSet builds an empty set.
func NewModelSet() *ModelSet {
	return &ModelSet{models: make(map[core.ModelKey]Model)}
}

// Add registers a named model. Duplicate names are rejected.
func (s *ModelSet) Add(key core.ModelKey, model Model) error {
	if model == nil {
		return fmt.Errorf("model %q is nil", key)
	}
	if _, dup := s.models[key]; dup {
		return fmt.Errorf("duplicate model name %q", key)
	}
	s.keys = append(s.keys, key)
	s.models[key] = model
	return nil
}

// Get returns the model registered under key.
func (s *ModelSet) Get(key core.ModelKey) (Model, bool) {
	m, ok := s.models[key]
	return m, ok
}

// Keys returns the model names in insertion order.
func (s *ModelSet) Keys() []core.ModelKey {
	return append([]core.ModelKey(nil), s.keys...)
}

// Len returns the number of registered models.
func (s *ModelSet) Len() int { return len(s.keys) }

// Score invokes the capability selected by the output mode: raw scores
// for OutputRaw, the positive-class probability column for
// OutputProbability. A model lacking the probability capability in
// probability mode is a configuration error.
func Score(model Model, batch [][]float64, output core.ModelOutput) ([]float64, error) {
	switch output {
	case core.OutputRaw:
		return model.Predict(batch)
	case core.OutputProbability:
		pm, ok := model.(ProbabilityModel)
		if !ok {
			return nil, core.NewConfigurationError("probability output requested from a model without a probability capability")
		}
		probs, err := pm.PredictProba(batch)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(probs))
		for i, p := range probs {
			if len(p) < 2 {
				return nil, fmt.Errorf("probability row %d has %d classes, expected at least 2", i, len(p))
			}
			out[i] = p[1]
		}
		return out, nil
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown model output mode %q", output))
	}
}
