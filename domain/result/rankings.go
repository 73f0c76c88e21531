package result

import "sort"

// TopFeatures returns the first n labels of a labeled ranking table, or
// all of them when n exceeds the ranking length.
func (t Table) TopFeatures(n int) []string {
	if n > len(t.Labels) {
		n = len(t.Labels)
	}
	if n < 0 {
		n = 0
	}
	return append([]string(nil), t.Labels[:n]...)
}

// CombineRankings merges per-model rankings into one consensus order by
// mean rank position. A feature absent from a ranking is charged that
// ranking's full length, so features every model agrees on rise to the
// top. Ties keep first-seen order.
func CombineRankings(rankings [][]string, n int) []string {
	var order []string
	known := make(map[string]bool)
	for _, ranking := range rankings {
		for _, f := range ranking {
			if !known[f] {
				known[f] = true
				order = append(order, f)
			}
		}
	}

	sums := make(map[string]float64, len(order))
	for _, ranking := range rankings {
		pos := make(map[string]int, len(ranking))
		for i, f := range ranking {
			pos[f] = i
		}
		for _, f := range order {
			if p, ok := pos[f]; ok {
				sums[f] += float64(p)
			} else {
				sums[f] += float64(len(ranking))
			}
		}
	}

	sort.SliceStable(order, func(a, b int) bool { return sums[order[a]] < sums[order[b]] })
	if n > 0 && n < len(order) {
		order = order[:n]
	}
	return order
}
