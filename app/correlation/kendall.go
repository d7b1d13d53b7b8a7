package correlation

import "math"

// kendall returns Kendall's tau-b, which corrects for ties on either side.
// gonum/stat has no rank-concordance coefficient, so it is counted here.
func kendall(x, y []float64) float64 {
	n := len(x)
	if n < 2 {
		return math.NaN()
	}
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := sign(x[i] - x[j])
			dy := sign(y[i] - y[j])
			if dx == 0 {
				tiesX++
			}
			if dy == 0 {
				tiesY++
			}
			switch {
			case dx == 0 || dy == 0:
			case dx == dy:
				concordant++
			default:
				discordant++
			}
		}
	}
	pairs := float64(n*(n-1)) / 2
	denom := math.Sqrt((pairs - tiesX) * (pairs - tiesY))
	if denom == 0 {
		return math.NaN()
	}
	return clamp((concordant - discordant) / denom)
}

func sign(d float64) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
