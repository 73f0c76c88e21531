// Package testkit provides synthetic models, datasets, and in-memory
// fakes shared by the package tests. Every generator is seeded so
// fixtures are reproducible across runs.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
)

// LinearModel predicts a weighted sum of the inputs plus an intercept.
// With a single weight of 2 the first-order effect of that feature is a
// line of slope 2, which makes effect curves easy to assert against.
type LinearModel struct {
	Weights   []float64
	Intercept float64
}

func (m *LinearModel) Predict(batch [][]float64) ([]float64, error) {
	out := make([]float64, len(batch))
	for i, row := range batch {
		if len(row) < len(m.Weights) {
			return nil, fmt.Errorf("row %d has %d values, need %d", i, len(row), len(m.Weights))
		}
		v := m.Intercept
		for j, w := range m.Weights {
			v += w * row[j]
		}
		out[i] = v
	}
	return out, nil
}

// LogisticModel squashes a linear score through a sigmoid and exposes
// both the raw score and a two-class probability head.
type LogisticModel struct {
	Weights   []float64
	Intercept float64
}

func (m *LogisticModel) Predict(batch [][]float64) ([]float64, error) {
	linear := LinearModel{Weights: m.Weights, Intercept: m.Intercept}
	return linear.Predict(batch)
}

func (m *LogisticModel) PredictProba(batch [][]float64) ([][]float64, error) {
	scores, err := m.Predict(batch)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(scores))
	for i, s := range scores {
		p := 1 / (1 + math.Exp(-s))
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

// InteractionModel predicts a*x0 + b*x1 + c*x0*x1. With c != 0 the pair
// (x0, x1) carries a genuine interaction; with c == 0 the model is
// purely additive.
type InteractionModel struct {
	A, B, C float64
}

func (m *InteractionModel) Predict(batch [][]float64) ([]float64, error) {
	out := make([]float64, len(batch))
	for i, row := range batch {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d has %d values, need at least 2", i, len(row))
		}
		out[i] = m.A*row[0] + m.B*row[1] + m.C*row[0]*row[1]
	}
	return out, nil
}

// UniformDataset generates n examples of the named continuous features,
// each drawn uniformly from [lo, hi).
func UniformDataset(seed int64, n int, lo, hi float64, features ...string) *dataset.Dataset {
	r := rand.New(rand.NewSource(seed))
	columns := make([][]float64, len(features))
	order := make([]core.FeatureKey, len(features))
	for i, name := range features {
		col := make([]float64, n)
		for j := range col {
			col[j] = lo + (hi-lo)*r.Float64()
		}
		order[i] = core.FeatureKey(name)
		columns[i] = col
	}
	ds, err := dataset.New(order, columns, nil)
	if err != nil {
		panic(err)
	}
	return ds
}

// SignalNoiseDataset generates a binary classification set where the
// target depends on the "signal" feature alone; "noise" features are
// independent of the target. Returns the dataset with targets attached.
func SignalNoiseDataset(seed int64, n, noiseFeatures int) *dataset.Dataset {
	r := rand.New(rand.NewSource(seed))
	order := []core.FeatureKey{"signal"}

	signal := make([]float64, n)
	targets := make([]float64, n)
	for i := range signal {
		signal[i] = r.NormFloat64()
		p := 1 / (1 + math.Exp(-2*signal[i]))
		if r.Float64() < p {
			targets[i] = 1
		}
	}
	columns := [][]float64{signal}

	for f := 0; f < noiseFeatures; f++ {
		key := core.FeatureKey(fmt.Sprintf("noise_%d", f))
		col := make([]float64, n)
		for i := range col {
			col[i] = r.NormFloat64()
		}
		order = append(order, key)
		columns = append(columns, col)
	}

	ds, err := dataset.New(order, columns, targets)
	if err != nil {
		panic(err)
	}
	return ds
}

// WithTargets rebuilds a dataset with the given target vector attached.
func WithTargets(ds *dataset.Dataset, targets []float64) *dataset.Dataset {
	features := ds.Features()
	columns := make([][]float64, len(features))
	for i, f := range features {
		col, err := ds.Column(f)
		if err != nil {
			panic(err)
		}
		columns[i] = append([]float64(nil), col...)
	}
	out, err := dataset.New(features, columns, targets)
	if err != nil {
		panic(err)
	}
	return out
}
