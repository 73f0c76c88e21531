package interaction

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
)

// FriedmanHStatistic computes the second-order H² between two features
// from their 1D partial dependence curves and the joint 2D surface:
//
//	H² = Σ(PD2(x_i, x_j) - PD1(x_i) - PD1(x_j))² / Σ PD2(x_i, x_j)²
//
// evaluated over the shared grid after centering each curve. The 1D
// curves must sit on exactly the grid the 2D surface was computed on;
// mismatched bin counts are a configuration error.
func FriedmanHStatistic(pdFirst, pdSecond []float64, pdJoint [][]float64) (float64, error) {
	if len(pdJoint) == 0 || len(pdJoint) != len(pdFirst) || len(pdJoint[0]) != len(pdSecond) {
		cols := 0
		if len(pdJoint) > 0 {
			cols = len(pdJoint[0])
		}
		return 0, core.NewConfigurationError(fmt.Sprintf(
			"H-statistic grids do not match: 2D surface is %dx%d, 1D curves are %d and %d bins",
			len(pdJoint), cols, len(pdFirst), len(pdSecond)))
	}

	first := centered(pdFirst)
	second := centered(pdSecond)

	var jointSum float64
	var n int
	for _, row := range pdJoint {
		for _, v := range row {
			jointSum += v
		}
		n += len(row)
	}
	jointMean := jointSum / float64(n)

	var numer, denom float64
	for i, row := range pdJoint {
		for j, v := range row {
			joint := v - jointMean
			d := joint - first[i] - second[j]
			numer += d * d
			denom += joint * joint
		}
	}
	if denom == 0 {
		return 0, nil
	}
	return numer / denom, nil
}

func centered(curve []float64) []float64 {
	mean := stat.Mean(curve, nil)
	out := make([]float64, len(curve))
	for i, v := range curve {
		out[i] = v - mean
	}
	return out
}
