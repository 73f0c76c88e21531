// Package pd computes partial dependence and individual conditional
// expectation curves, the precursors of the H-statistic.
package pd

import (
	"context"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/ports"
)

// Percentile trimming for the sweep grid. 1D sweeps trim at [5, 95],
// 2D surfaces trim harder at [10, 90] to keep every cell supported.
const (
	trim1D = 5.0
	trim2D = 10.0
)

// DefaultBins is the grid resolution when the caller does not set one.
const DefaultBins = 25

// Engine computes PD and ICE curves for one output mode. Unlike ALE,
// PD values are raw model outputs (probability mode yields the
// positive-class probability, unscaled); centering is left to
// consumers that need it.
type Engine struct {
	Output core.ModelOutput
	NBins  int
}

// New creates an engine with the default grid resolution.
func New(output core.ModelOutput) *Engine {
	return &Engine{Output: output, NBins: DefaultBins}
}

func (e *Engine) nBins() int {
	if e.NBins <= 1 {
		return DefaultBins
	}
	return e.NBins
}

// Grid returns evenly spaced sweep values between the trimmed
// percentiles of the feature column.
func (e *Engine) Grid(feature core.FeatureKey, column []float64, trim float64) ([]float64, error) {
	lo, err := stats.Percentile(column, trim)
	if err != nil {
		return nil, core.NewInvalidFeatureError(feature, err.Error())
	}
	hi, err := stats.Percentile(column, 100-trim)
	if err != nil {
		return nil, core.NewInvalidFeatureError(feature, err.Error())
	}
	n := e.nBins()
	grid := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid, nil
}

// FirstOrder sweeps one feature across its trimmed range, forcing every
// example to each grid value and averaging the model output.
func (e *Engine) FirstOrder(ctx context.Context, model ports.Model, ds *dataset.Dataset, feature core.FeatureKey) (curve, grid []float64, err error) {
	ice, grid, err := e.ICE(ctx, model, ds, feature)
	if err != nil {
		return nil, nil, err
	}
	curve = make([]float64, len(grid))
	col := make([]float64, len(ice))
	for j := range grid {
		for i := range ice {
			col[i] = ice[i][j]
		}
		curve[j] = stat.Mean(col, nil)
	}
	return curve, grid, nil
}

// ICE returns the per-example unaveraged curves, one row per example,
// one column per grid value.
func (e *Engine) ICE(ctx context.Context, model ports.Model, ds *dataset.Dataset, feature core.FeatureKey) (curves [][]float64, grid []float64, err error) {
	dtype, err := ds.DType(feature)
	if err != nil {
		return nil, nil, err
	}
	if dtype != dataset.DTypeContinuous {
		return nil, nil, core.NewInvalidFeatureError(feature, "partial dependence requires a continuous feature")
	}
	column, err := ds.Column(feature)
	if err != nil {
		return nil, nil, err
	}
	grid, err = e.Grid(feature, column, trim1D)
	if err != nil {
		return nil, nil, err
	}
	col, err := ds.Index(feature)
	if err != nil {
		return nil, nil, err
	}

	base := ds.Matrix()
	curves = make([][]float64, ds.Len())
	for i := range curves {
		curves[i] = make([]float64, len(grid))
	}
	for j, value := range grid {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		batch := dataset.CloneMatrix(base)
		for r := range batch {
			batch[r][col] = value
		}
		preds, err := ports.Score(model, batch, e.Output)
		if err != nil {
			return nil, nil, err
		}
		for i, p := range preds {
			curves[i][j] = p
		}
	}
	return curves, grid, nil
}

// SecondOrder sweeps a feature pair over the cross product of their
// trimmed ranges and averages the model output per cell.
func (e *Engine) SecondOrder(ctx context.Context, model ports.Model, ds *dataset.Dataset, pair core.FeaturePair) (surface [][]float64, grids [2][]float64, err error) {
	for _, f := range []core.FeatureKey{pair.First, pair.Second} {
		dtype, err := ds.DType(f)
		if err != nil {
			return nil, grids, err
		}
		if dtype != dataset.DTypeContinuous {
			return nil, grids, core.NewInvalidFeatureError(f, "partial dependence requires continuous features")
		}
	}
	colA, err := ds.Column(pair.First)
	if err != nil {
		return nil, grids, err
	}
	colB, err := ds.Column(pair.Second)
	if err != nil {
		return nil, grids, err
	}
	grids[0], err = e.Grid(pair.First, colA, trim2D)
	if err != nil {
		return nil, grids, err
	}
	grids[1], err = e.Grid(pair.Second, colB, trim2D)
	if err != nil {
		return nil, grids, err
	}
	ia, err := ds.Index(pair.First)
	if err != nil {
		return nil, grids, err
	}
	ib, err := ds.Index(pair.Second)
	if err != nil {
		return nil, grids, err
	}

	base := ds.Matrix()
	surface = make([][]float64, len(grids[0]))
	for i, va := range grids[0] {
		surface[i] = make([]float64, len(grids[1]))
		for j, vb := range grids[1] {
			if err := ctx.Err(); err != nil {
				return nil, grids, err
			}
			batch := dataset.CloneMatrix(base)
			for r := range batch {
				batch[r][ia] = va
				batch[r][ib] = vb
			}
			preds, err := ports.Score(model, batch, e.Output)
			if err != nil {
				return nil, grids, err
			}
			surface[i][j] = stat.Mean(preds, nil)
		}
	}
	return surface, grids, nil
}
