// Package bins computes quantile-based bin edges for ALE accumulation.
package bins

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
)

// Percentile trimming bounds. Extreme tails are excluded on purpose so
// every bin stays populated; values outside [2.5, 97.5] never anchor an
// edge.
const (
	lowerPercentile = 2.5
	upperPercentile = 97.5
)

// DefaultEdges is the edge count produced by the classic 5-point
// percentile step (2.5, 7.5, ..., 97.5).
const DefaultEdges = 20

// Binner computes quantile grids for one or two continuous features.
type Binner struct {
	// NPoints is the number of edges (bins+1) to produce. Zero means
	// DefaultEdges.
	NPoints int
}

// Edges1D returns NPoints edges at evenly spaced percentiles between
// 2.5 and 97.5 inclusive. Edges may repeat when the column's variance
// is too low to produce distinct quantiles; the zero-width bins are
// kept and simply route zero examples.
func (b Binner) Edges1D(feature core.FeatureKey, column []float64) ([]float64, error) {
	nPoints := b.NPoints
	if nPoints <= 0 {
		nPoints = DefaultEdges
	}
	if nPoints < 2 {
		return nil, core.NewConfigurationError("quantile grid needs at least 2 edges")
	}
	if len(column) == 0 {
		return nil, core.NewInvalidFeatureError(feature, "empty column")
	}
	for _, v := range column {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewInvalidFeatureError(feature, "column is not numeric")
		}
	}

	sorted := append([]float64(nil), column...)
	sort.Float64s(sorted)
	edges := make([]float64, nPoints)
	step := (upperPercentile - lowerPercentile) / float64(nPoints-1)
	for i := range edges {
		p := lowerPercentile + float64(i)*step
		edges[i] = stat.Quantile(p/100, stat.LinInterp, sorted, nil)
	}
	return edges, nil
}

// Edges2D returns one 1D quantile grid per feature of the pair.
func (b Binner) Edges2D(pair core.FeaturePair, columnA, columnB []float64) ([2][]float64, error) {
	var grids [2][]float64
	a, err := b.Edges1D(pair.First, columnA)
	if err != nil {
		return grids, err
	}
	bb, err := b.Edges1D(pair.Second, columnB)
	if err != nil {
		return grids, err
	}
	grids[0] = a
	grids[1] = bb
	return grids, nil
}

// Midpoints returns the centers of consecutive edge pairs, the x
// coordinates effect curves are reported at.
func Midpoints(edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	out := make([]float64, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		out[i-1] = (edges[i-1] + edges[i]) / 2
	}
	return out
}
