// Package contribution computes per-example feature attributions and
// the performance-based example selection they are often averaged over.
package contribution

import (
	"math"
	"sort"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/ports"
)

// Selection holds the example indices of the four performance buckets.
type Selection struct {
	// Hits: positive examples predicted closest to their target.
	Hits []int
	// Misses: positive examples predicted furthest from their target.
	Misses []int
	// FalseAlarms: negative examples predicted furthest from theirs.
	FalseAlarms []int
	// CorrectNegatives: negative examples predicted closest to theirs.
	CorrectNegatives []int
}

// SelectByPerformance partitions examples by ground-truth class, ranks
// each partition by absolute distance between prediction and target,
// and returns the top k indices per bucket. Ties break by ascending
// original index. A bucket holding fewer than k eligible examples is a
// hard failure: callers that want "as many as available" must lower k
// themselves.
func SelectByPerformance(model ports.Model, ds *dataset.Dataset, output core.ModelOutput, k int) (Selection, error) {
	var sel Selection
	if k < 1 {
		return sel, core.NewConfigurationError("k must be at least 1")
	}
	targets := ds.Targets()
	if targets == nil {
		return sel, core.NewConfigurationError("performance-based selection requires targets")
	}

	preds, err := ports.Score(model, ds.Matrix(), output)
	if err != nil {
		return sel, err
	}

	var positives, negatives []int
	for i, y := range targets {
		if y > 0 {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}
	if len(positives) < k {
		return sel, core.NewInsufficientDataError("hits", len(positives), k)
	}
	if len(negatives) < k {
		return sel, core.NewInsufficientDataError("correct_negatives", len(negatives), k)
	}

	distance := func(i int) float64 { return math.Abs(targets[i] - preds[i]) }
	closest := func(idx []int) []int {
		out := append([]int(nil), idx...)
		sort.SliceStable(out, func(a, b int) bool { return distance(out[a]) < distance(out[b]) })
		return out[:k]
	}
	furthest := func(idx []int) []int {
		out := append([]int(nil), idx...)
		sort.SliceStable(out, func(a, b int) bool { return distance(out[a]) > distance(out[b]) })
		return out[:k]
	}

	sel.Hits = closest(positives)
	sel.Misses = furthest(positives)
	sel.FalseAlarms = furthest(negatives)
	sel.CorrectNegatives = closest(negatives)
	return sel, nil
}

// Buckets returns the selection as named index lists in a fixed order.
func (s Selection) Buckets() []struct {
	Name    string
	Indices []int
} {
	return []struct {
		Name    string
		Indices []int
	}{
		{"hits", s.Hits},
		{"misses", s.Misses},
		{"false_alarms", s.FalseAlarms},
		{"correct_negatives", s.CorrectNegatives},
	}
}
