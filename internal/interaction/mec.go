package interaction

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
)

// MECOptions bounds the piecewise-linear approximation.
type MECOptions struct {
	// MaxSegments caps the segment count per feature.
	MaxSegments int
	// ApproxError is the tolerated fraction of unexplained curve
	// variance (1 - R²) for the approximation.
	ApproxError float64
}

// DefaultMECOptions mirrors the conventional 10-segment / 5% setup.
func DefaultMECOptions() MECOptions {
	return MECOptions{MaxSegments: 10, ApproxError: 0.05}
}

// MainEffectComplexity measures how many linear segments it takes to
// approximate each feature's ALE curve, then averages the counts
// weighted by curve variance. Fewer segments means a simpler, more
// additive effect. Returns the weighted average and the per-feature
// segment counts.
//
// The fit merges segments greedily: starting from one segment per
// consecutive midpoint pair, the adjacent pair whose merge costs the
// least squared error is merged while the approximation stays within
// ApproxError, and unconditionally while the count still exceeds
// MaxSegments.
func MainEffectComplexity(curves []Curve, opts MECOptions) (float64, map[core.FeatureKey]int) {
	if opts.MaxSegments < 1 {
		opts.MaxSegments = 1
	}
	counts := make(map[core.FeatureKey]int, len(curves))
	var weighted, totalWeight float64
	var plainSum float64
	for _, c := range curves {
		k := segmentCount(c.Midpoints(), c.Values, opts)
		counts[c.Feature] = k
		w := stat.Variance(c.Values, nil)
		if math.IsNaN(w) {
			w = 0
		}
		weighted += w * float64(k)
		totalWeight += w
		plainSum += float64(k)
	}
	if totalWeight == 0 {
		if len(curves) == 0 {
			return 0, counts
		}
		return plainSum / float64(len(curves)), counts
	}
	return weighted / totalWeight, counts
}

type segment struct {
	start, end int // half-open index range into the curve
	sse        float64
}

func segmentCount(xs, ys []float64, opts MECOptions) int {
	n := len(ys)
	if n < 3 {
		return 1
	}
	sst := totalSquares(ys)
	if sst == 0 {
		return 1
	}

	// Finest partition: two points per segment, trailing odd point
	// absorbed into the last segment.
	var segments []segment
	for i := 0; i < n; {
		end := i + 2
		if n-end == 1 || end > n {
			end = n
		}
		segments = append(segments, segment{start: i, end: end, sse: fitSSE(xs, ys, i, end)})
		i = end
	}

	for len(segments) > 1 {
		// Cheapest adjacent merge.
		best := -1
		bestCost := math.Inf(1)
		for i := 0; i+1 < len(segments); i++ {
			merged := fitSSE(xs, ys, segments[i].start, segments[i+1].end)
			cost := merged - segments[i].sse - segments[i+1].sse
			if math.IsNaN(cost) {
				continue
			}
			if cost < bestCost {
				bestCost = cost
				best = i
			}
		}
		if best < 0 {
			break
		}

		var total float64
		for _, s := range segments {
			total += s.sse
		}
		forced := len(segments) > opts.MaxSegments
		if !forced && (total+bestCost)/sst > opts.ApproxError {
			break
		}

		merged := segment{
			start: segments[best].start,
			end:   segments[best+1].end,
			sse:   fitSSE(xs, ys, segments[best].start, segments[best+1].end),
		}
		segments = append(segments[:best], append([]segment{merged}, segments[best+2:]...)...)
	}
	return len(segments)
}

// fitSSE is the residual sum of squares of an OLS line over ys[start:end].
// Repeated quantile edges can make every x in the range identical; the
// degenerate fit is then a horizontal line through the mean.
func fitSSE(xs, ys []float64, start, end int) float64 {
	var alpha, beta float64
	if xs[start] == xs[end-1] {
		alpha = stat.Mean(ys[start:end], nil)
	} else {
		alpha, beta = stat.LinearRegression(xs[start:end], ys[start:end], nil, false)
	}
	var sse float64
	for i := start; i < end; i++ {
		r := ys[i] - (alpha + beta*xs[i])
		sse += r * r
	}
	return sse
}

func totalSquares(ys []float64) float64 {
	mean := stat.Mean(ys, nil)
	var sst float64
	for _, y := range ys {
		sst += (y - mean) * (y - mean)
	}
	return sst
}
