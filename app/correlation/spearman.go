package correlation

import "sort"

// spearman is the Pearson correlation of the ranks of x and y
func spearman(x, y []float64) float64 {
	return pearson(ranks(x), ranks(y))
}

// ranks returns 1-based ranks; tied values share the average of their ranks.
func ranks(v []float64) []float64 {
	order := make([]int, len(v))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return v[order[a]] < v[order[b]] })

	out := make([]float64, len(v))
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && v[order[j]] == v[order[i]] {
			j++
		}
		// positions i..j-1 hold equal values
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			out[order[k]] = avg
		}
		i = j
	}
	return out
}
