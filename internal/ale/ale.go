// Package ale computes accumulated local effects: centered first-order
// and second-order effect curves over quantile bins, with bootstrap
// ensembles for confidence intervals.
package ale

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/internal/bins"
	"mintpy/ports"
)

// Engine computes ALE curves for one output mode. In probability mode
// local effects are positive-class probability differences scaled by
// 100, so curves read in percentage points.
type Engine struct {
	Output core.ModelOutput
	Binner bins.Binner
}

// New creates an engine with the default quantile binner.
func New(output core.ModelOutput) *Engine {
	return &Engine{Output: output}
}

// FirstOrder computes the centered first-order ALE curve of a
// continuous feature. When quantiles is nil the engine computes a
// percentile-trimmed grid from the feature column. The returned curve
// has one value per bin and zero mean.
//
// Bins that capture no examples contribute a local effect of exactly
// zero. That is the documented behavior of the method, not an
// interpolation: sparse regions flatten the curve instead of raising.
func (e *Engine) FirstOrder(ctx context.Context, model ports.Model, ds *dataset.Dataset, feature core.FeatureKey, quantiles []float64) (curve, edges []float64, err error) {
	dtype, err := ds.DType(feature)
	if err != nil {
		return nil, nil, err
	}
	if dtype != dataset.DTypeContinuous {
		return nil, nil, core.NewInvalidFeatureError(feature, "first-order ALE requires a continuous feature")
	}

	column, err := ds.Column(feature)
	if err != nil {
		return nil, nil, err
	}
	edges = quantiles
	if edges == nil {
		edges, err = e.Binner.Edges1D(feature, column)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(edges) < 2 {
		return nil, nil, core.NewConfigurationError("ALE requires at least 2 bin edges")
	}

	col, err := ds.Index(feature)
	if err != nil {
		return nil, nil, err
	}

	effects := make([]float64, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		idx := binMembers(column, edges[i-1], edges[i])
		if len(idx) == 0 {
			continue
		}
		lower := ds.Rows(idx)
		upper := dataset.CloneMatrix(lower)
		for r := range lower {
			lower[r][col] = edges[i-1]
			upper[r][col] = edges[i]
		}
		effect, err := e.meanDifference(model, upper, lower)
		if err != nil {
			return nil, nil, err
		}
		effects[i-1] = effect
	}

	accumulate(effects)
	center(effects)
	return effects, edges, nil
}

// SecondOrder computes the centered second-order ALE surface of a
// feature pair. Each cell combines the four corner counterfactuals as
// the discrete second difference, which isolates the pairwise
// interaction net of both main effects. The accumulation runs along
// the first axis only; the surface is centered by its global mean.
func (e *Engine) SecondOrder(ctx context.Context, model ports.Model, ds *dataset.Dataset, pair core.FeaturePair, quantiles [2][]float64) (grid [][]float64, edges [2][]float64, err error) {
	for _, f := range []core.FeatureKey{pair.First, pair.Second} {
		dtype, err := ds.DType(f)
		if err != nil {
			return nil, edges, err
		}
		if dtype != dataset.DTypeContinuous {
			return nil, edges, core.NewInvalidFeatureError(f, "second-order ALE requires continuous features")
		}
	}

	colA, err := ds.Column(pair.First)
	if err != nil {
		return nil, edges, err
	}
	colB, err := ds.Column(pair.Second)
	if err != nil {
		return nil, edges, err
	}

	edges = quantiles
	if edges[0] == nil || edges[1] == nil {
		edges, err = e.Binner.Edges2D(pair, colA, colB)
		if err != nil {
			return nil, edges, err
		}
	}
	if len(edges[0]) < 2 || len(edges[1]) < 2 {
		return nil, edges, core.NewConfigurationError("second-order ALE requires at least 2 edges per feature")
	}

	ia, err := ds.Index(pair.First)
	if err != nil {
		return nil, edges, err
	}
	ib, err := ds.Index(pair.Second)
	if err != nil {
		return nil, edges, err
	}

	grid = make([][]float64, len(edges[0])-1)
	for i := range grid {
		grid[i] = make([]float64, len(edges[1])-1)
	}

	for i := 1; i < len(edges[0]); i++ {
		for j := 1; j < len(edges[1]); j++ {
			if err := ctx.Err(); err != nil {
				return nil, edges, err
			}
			idx := cellMembers(colA, colB, edges[0][i-1], edges[0][i], edges[1][j-1], edges[1][j])
			if len(idx) == 0 {
				continue
			}
			base := ds.Rows(idx)
			lowLow := dataset.CloneMatrix(base)
			highLow := dataset.CloneMatrix(base)
			lowHigh := dataset.CloneMatrix(base)
			highHigh := base
			for r := range base {
				lowLow[r][ia], lowLow[r][ib] = edges[0][i-1], edges[1][j-1]
				highLow[r][ia], highLow[r][ib] = edges[0][i], edges[1][j-1]
				lowHigh[r][ia], lowHigh[r][ib] = edges[0][i-1], edges[1][j]
				highHigh[r][ia], highHigh[r][ib] = edges[0][i], edges[1][j]
			}
			// (high,high) - (low,high) - ((high,low) - (low,low))
			upper, err := e.meanDifference(model, highHigh, lowHigh)
			if err != nil {
				return nil, edges, err
			}
			lower, err := e.meanDifference(model, highLow, lowLow)
			if err != nil {
				return nil, edges, err
			}
			grid[i-1][j-1] = upper - lower
		}
	}

	for j := 0; j < len(grid[0]); j++ {
		for i := 1; i < len(grid); i++ {
			grid[i][j] += grid[i-1][j]
		}
	}
	centerGrid(grid)
	return grid, edges, nil
}

// FirstOrderCategorical computes a centered effect curve over the
// sorted distinct values of a categorical feature. Consecutive class
// pairs play the role of bin edges: the subset belonging to either
// class is scored at both class values and the mean difference is
// accumulated.
func (e *Engine) FirstOrderCategorical(ctx context.Context, model ports.Model, ds *dataset.Dataset, feature core.FeatureKey) (curve, classes []float64, err error) {
	classes, err = ds.Distinct(feature)
	if err != nil {
		return nil, nil, err
	}
	if len(classes) < 2 {
		return nil, nil, core.NewInvalidFeatureError(feature, "categorical ALE requires at least 2 classes")
	}
	column, err := ds.Column(feature)
	if err != nil {
		return nil, nil, err
	}
	col, err := ds.Index(feature)
	if err != nil {
		return nil, nil, err
	}

	curve = make([]float64, len(classes))
	for i := 1; i < len(classes); i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		var idx []int
		for r, v := range column {
			if v == classes[i-1] || v == classes[i] {
				idx = append(idx, r)
			}
		}
		if len(idx) == 0 {
			continue
		}
		lower := ds.Rows(idx)
		upper := dataset.CloneMatrix(lower)
		for r := range lower {
			lower[r][col] = classes[i-1]
			upper[r][col] = classes[i]
		}
		effect, err := e.meanDifference(model, upper, lower)
		if err != nil {
			return nil, nil, err
		}
		curve[i] = effect
	}

	accumulate(curve)
	center(curve)
	return curve, classes, nil
}

// meanDifference scores both counterfactual batches and returns the
// mean upper-minus-lower difference, scaled to percentage points in
// probability mode.
func (e *Engine) meanDifference(model ports.Model, upper, lower [][]float64) (float64, error) {
	up, err := ports.Score(model, upper, e.Output)
	if err != nil {
		return 0, err
	}
	lo, err := ports.Score(model, lower, e.Output)
	if err != nil {
		return 0, err
	}
	diffs := make([]float64, len(up))
	for i := range up {
		diffs[i] = up[i] - lo[i]
	}
	effect := stat.Mean(diffs, nil)
	if e.Output == core.OutputProbability {
		effect *= 100
	}
	return effect, nil
}

func binMembers(column []float64, lo, hi float64) []int {
	var idx []int
	for i, v := range column {
		if v >= lo && v < hi {
			idx = append(idx, i)
		}
	}
	return idx
}

func cellMembers(a, b []float64, aLo, aHi, bLo, bHi float64) []int {
	var idx []int
	for i := range a {
		if a[i] >= aLo && a[i] < aHi && b[i] >= bLo && b[i] < bHi {
			idx = append(idx, i)
		}
	}
	return idx
}

// accumulate replaces per-bin local effects with their inclusive
// cumulative sum.
func accumulate(effects []float64) {
	for i := 1; i < len(effects); i++ {
		effects[i] += effects[i-1]
	}
}

// center subtracts the curve's own mean so the expectation is zero.
// The dropped affine constant carries no meaning: only the relative
// shape makes curves comparable across features and models.
func center(curve []float64) {
	mean := stat.Mean(curve, nil)
	for i := range curve {
		curve[i] -= mean
	}
}

func centerGrid(grid [][]float64) {
	var sum float64
	var n int
	for _, row := range grid {
		for _, v := range row {
			sum += v
		}
		n += len(row)
	}
	mean := sum / float64(n)
	for _, row := range grid {
		for j := range row {
			row[j] -= mean
		}
	}
}
