// Package surrogate fits simple stand-in models to a dataset so the
// diagnostics can run end to end when no external model is wired in.
package surrogate

import (
	"gonum.org/v1/gonum/mat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/ports"
)

// Linear is an ordinary least squares fit of the targets on all
// features. It satisfies the model port, so every diagnostic that works
// on a real model works on the surrogate.
type Linear struct {
	Weights   []float64
	Intercept float64
}

var _ ports.Model = (*Linear)(nil)

// FitLinear solves the least squares problem over the dataset. Targets
// are required.
func FitLinear(ds *dataset.Dataset) (*Linear, error) {
	targets := ds.Targets()
	if targets == nil {
		return nil, core.NewConfigurationError("surrogate fitting requires targets")
	}
	n := ds.Len()
	d := len(ds.Features())

	// Design matrix with a leading ones column for the intercept.
	X := mat.NewDense(n, d+1, nil)
	rows := ds.Matrix()
	for i, row := range rows {
		X.Set(i, 0, 1)
		for j, v := range row {
			X.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), targets...))

	var qr mat.QR
	qr.Factorize(X)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, y); err != nil {
		return nil, err
	}

	weights := make([]float64, d)
	for j := 0; j < d; j++ {
		weights[j] = coef.AtVec(j + 1)
	}
	return &Linear{Weights: weights, Intercept: coef.AtVec(0)}, nil
}

// Predict scores a batch with the fitted coefficients.
func (m *Linear) Predict(batch [][]float64) ([]float64, error) {
	out := make([]float64, len(batch))
	for i, row := range batch {
		if len(row) != len(m.Weights) {
			return nil, core.NewConfigurationError("batch width does not match the fitted feature count")
		}
		v := m.Intercept
		for j, w := range m.Weights {
			v += w * row[j]
		}
		out[i] = v
	}
	return out, nil
}
