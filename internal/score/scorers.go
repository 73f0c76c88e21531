// Package score holds the built-in evaluation functions and the
// scoring-strategy registry for permutation importance.
package score

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/ports"
)

// Binding pairs an evaluation function with the selection rule that
// matches its orientation.
type Binding struct {
	Name     string
	Fn       ports.Scorer
	Strategy core.ScoringStrategy
}

var registry = map[string]Binding{
	"auc":        {Name: "auc", Fn: AUC, Strategy: core.ArgminOfMean},
	"auprc":      {Name: "auprc", Fn: AveragePrecision, Strategy: core.ArgminOfMean},
	"norm_aupdc": {Name: "norm_aupdc", Fn: NormalizedAUPDC, Strategy: core.ArgminOfMean},
	"bss":        {Name: "bss", Fn: BrierSkillScore, Strategy: core.ArgminOfMean},
	"mse":        {Name: "mse", Fn: MSE, Strategy: core.ArgmaxOfMean},
}

// Lookup resolves a built-in evaluation function by name, pre-bound to
// its scoring strategy.
func Lookup(name string) (Binding, error) {
	b, ok := registry[strings.ToLower(name)]
	if !ok {
		return Binding{}, core.NewConfigurationError(fmt.Sprintf("unknown evaluation function %q", name))
	}
	return b, nil
}

// Names returns the registered evaluation function names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AUC is the area under the ROC curve, computed as the rank statistic
// (Mann-Whitney) with midrank tie handling. Higher is better.
func AUC(targets, predictions []float64) float64 {
	n := len(targets)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return predictions[idx[a]] < predictions[idx[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && predictions[idx[j+1]] == predictions[idx[i]] {
			j++
		}
		// midrank for the tie group [i, j]
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = r
		}
		i = j + 1
	}

	var posRankSum float64
	var nPos, nNeg float64
	for i, y := range targets {
		if y > 0 {
			posRankSum += ranks[i]
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (posRankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// AveragePrecision is the area under the precision-recall curve using
// the step-wise interpolation. Higher is better.
func AveragePrecision(targets, predictions []float64) float64 {
	n := len(targets)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return predictions[idx[a]] > predictions[idx[b]]
	})

	var nPos float64
	for _, y := range targets {
		if y > 0 {
			nPos++
		}
	}
	if nPos == 0 {
		return 0
	}

	var tp, fp, ap, prevRecall float64
	for _, i := range idx {
		if targets[i] > 0 {
			tp++
		} else {
			fp++
		}
		recall := tp / nPos
		precision := tp / (tp + fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap
}

// NormalizedAUPDC rescales the area under the performance diagram
// (precision-recall) curve against the climatological base rate, so
// that 0 is no skill and 1 is perfect. Higher is better.
func NormalizedAUPDC(targets, predictions []float64) float64 {
	base := stat.Mean(binarize(targets), nil)
	if base >= 1 {
		return 1
	}
	ap := AveragePrecision(targets, predictions)
	return (ap - base) / (1 - base)
}

// BrierSkillScore compares the Brier score to the climatological
// forecast. Higher is better; 0 is no skill over climatology.
func BrierSkillScore(targets, predictions []float64) float64 {
	climo := stat.Mean(targets, nil)
	var bs, bsRef float64
	for i, y := range targets {
		bs += (predictions[i] - y) * (predictions[i] - y)
		bsRef += (climo - y) * (climo - y)
	}
	if bsRef == 0 {
		return 0
	}
	return 1 - bs/bsRef
}

// MSE is the mean squared error. Lower is better.
func MSE(targets, predictions []float64) float64 {
	var sum float64
	for i, y := range targets {
		d := predictions[i] - y
		sum += d * d
	}
	return sum / float64(len(targets))
}

func binarize(targets []float64) []float64 {
	out := make([]float64, len(targets))
	for i, y := range targets {
		if y > 0 {
			out[i] = 1
		}
	}
	return out
}
