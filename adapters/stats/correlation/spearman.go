package correlation

import "sort"

// Spearman is the rank correlation of x and y: Pearson over average ranks,
// so ties are handled exactly. It picks up monotonic relationships that are
// not linear. Degenerate inputs yield 0, as for Pearson.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) <= 2 {
		return 0
	}
	return Pearson(Ranks(x), Ranks(y))
}

// Ranks converts values to 1-based ranks, averaging the ranks of ties
func Ranks(data []float64) []float64 {
	n := len(data)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return data[order[a]] < data[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && data[order[j]] == data[order[i]] {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}
