package correlation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// pearson returns the linear correlation of x and y, NaN with fewer than two
// observations or when either side has no variance.
func pearson(x, y []float64) float64 {
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	return clamp(stat.Correlation(x, y, nil))
}

// constant reports whether every value equals the first
func constant(v []float64) bool {
	for _, f := range v[1:] {
		if f != v[0] {
			return false
		}
	}
	return true
}
