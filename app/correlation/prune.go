package correlation

import (
	"fmt"
	"math"

	"datasift/app/table"
)

// DefaultThreshold is the correlation above which a column is redundant
const DefaultThreshold = 0.95

// PruneOptions controls Prune. A zero Threshold means DefaultThreshold and
// an empty Method means Pearson. By default the absolute coefficient is
// compared, so strong negative correlation also counts as redundant; Signed
// compares the coefficient as is.
type PruneOptions struct {
	Threshold float64
	Method    Method
	Signed    bool
}

// Redundant returns the numeric columns of t whose correlation with any
// earlier numeric column exceeds the threshold, in table order. Column order
// is the tie-break: of two correlated columns the earlier one is kept.
func Redundant(t *table.Table, opts PruneOptions) ([]string, error) {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("correlation threshold %v outside [0, 1]", opts.Threshold)
	}
	m, err := Compute(t, opts.Method)
	if err != nil {
		return nil, err
	}

	var drop []string
	for j := 1; j < m.Size(); j++ {
		for i := 0; i < j; i++ {
			r := m.At(i, j)
			if !opts.Signed {
				r = math.Abs(r)
			}
			// NaN never compares greater
			if r > threshold {
				drop = append(drop, m.names[j])
				break
			}
		}
	}
	return drop, nil
}

// Prune returns t without its redundant columns (see Redundant) and the
// names that were removed. Non-numeric columns are never removed.
func Prune(t *table.Table, opts PruneOptions) (*table.Table, []string, error) {
	drop, err := Redundant(t, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(drop) == 0 {
		return t, nil, nil
	}
	return t.Drop(drop...), drop, nil
}
