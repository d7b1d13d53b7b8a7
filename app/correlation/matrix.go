// Package correlation computes correlation matrices over the numeric
// columns of a table and removes columns that are redundant with an earlier
// one.
package correlation

import (
	"fmt"
	"math"
	"strings"

	"datasift/app/table"
)

// Method selects the correlation coefficient
type Method string

const (
	// Pearson is the linear correlation coefficient
	Pearson Method = "pearson"
	// Kendall is the rank-concordance coefficient (tau-b)
	Kendall Method = "kendall"
	// Spearman is the rank-monotonic coefficient
	Spearman Method = "spearman"
)

// ParseMethod accepts a method name case-insensitively; empty means Pearson.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Pearson, nil
	case Pearson, Kendall, Spearman:
		return m, nil
	}
	return "", fmt.Errorf("unknown correlation method %q", s)
}

func (m Method) coefficient() (func(x, y []float64) float64, error) {
	switch m {
	case Pearson, "":
		return pearson, nil
	case Kendall:
		return kendall, nil
	case Spearman:
		return spearman, nil
	}
	return nil, fmt.Errorf("unknown correlation method %q", string(m))
}

// Matrix is a square, symmetric correlation matrix labelled by column name.
// Entries are in [-1, 1] or NaN when a pair has too few observations or no
// variance.
type Matrix struct {
	names  []string
	values [][]float64
}

// Names returns the column labels in order
func (m *Matrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Size returns the number of rows (and columns) of the matrix
func (m *Matrix) Size() int { return len(m.names) }

// At returns entry (i, j)
func (m *Matrix) At(i, j int) float64 { return m.values[i][j] }

// Get returns the coefficient of two columns by name
func (m *Matrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.values[i][j], true
}

func (m *Matrix) index(name string) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Round returns a copy with every entry rounded to the given number of
// decimal places. NaN entries stay NaN.
func (m *Matrix) Round(places int) *Matrix {
	scale := math.Pow(10, float64(places))
	out := &Matrix{names: m.Names(), values: make([][]float64, len(m.values))}
	for i, row := range m.values {
		out.values[i] = make([]float64, len(row))
		for j, v := range row {
			out.values[i][j] = math.Round(v*scale) / scale
		}
	}
	return out
}

// NumericColumns returns the integer and float columns of t in table order;
// they are the only columns correlation looks at.
func NumericColumns(t *table.Table) []table.Column {
	var cols []table.Column
	for _, c := range t.Columns() {
		if c.Kind.IsNumeric() {
			cols = append(cols, c)
		}
	}
	return cols
}

// Compute builds the correlation matrix of the numeric columns of t using
// pairwise-complete observations: a row takes part in the (a, b) entry when
// both a and b hold a number there.
func Compute(t *table.Table, method Method) (*Matrix, error) {
	coef, err := method.coefficient()
	if err != nil {
		return nil, err
	}
	cols := NumericColumns(t)
	m := &Matrix{names: make([]string, len(cols)), values: make([][]float64, len(cols))}
	for i, c := range cols {
		m.names[i] = c.Name
		m.values[i] = make([]float64, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			x, y := pairwise(cols[i], cols[j])
			r := coef(x, y)
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.values[i][j] = r
			m.values[j][i] = r
		}
	}
	return m, nil
}

// pairwise returns the rows where both columns hold a number
func pairwise(a, b table.Column) ([]float64, []float64) {
	x := make([]float64, 0, a.Len())
	y := make([]float64, 0, b.Len())
	for i := range a.Values {
		av, ok := a.Values[i].Number(a.Kind)
		if !ok {
			continue
		}
		bv, ok := b.Values[i].Number(b.Kind)
		if !ok {
			continue
		}
		x = append(x, av)
		y = append(y, bv)
	}
	return x, y
}

func clamp(r float64) float64 {
	switch {
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}
