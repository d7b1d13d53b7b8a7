package correlation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasift/app/table"
)

func floats(name string, values ...float64) table.Column {
	col := table.Column{Name: name, Kind: table.KindFloat, Values: make([]table.Value, len(values))}
	for i, v := range values {
		if math.IsNaN(v) {
			col.Values[i] = table.Missing()
			continue
		}
		col.Values[i] = table.Float(v)
	}
	return col
}

func ints(name string, values ...int64) table.Column {
	col := table.Column{Name: name, Kind: table.KindInteger, Values: make([]table.Value, len(values))}
	for i, v := range values {
		col.Values[i] = table.Int(v)
	}
	return col
}

func words(name string, values ...string) table.Column {
	return table.NewStringColumn(name, values, nil)
}

// abc is the redundant-column fixture: b is 2a, c falls as a rises.
func abc() *table.Table {
	return table.MustNew(
		ints("a", 1, 2, 3, 4, 5),
		ints("b", 2, 4, 6, 8, 10),
		ints("c", 5, 3, 1, 0, -1),
	)
}

func TestCoefficients(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 1.0, pearson(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, pearson(x, []float64{10, 8, 6, 4, 2}), 1e-12)
	assert.InDelta(t, -0.98480, pearson(x, []float64{5, 3, 1, 0, -1}), 1e-5)

	// monotonic but not linear
	squares := []float64{1, 4, 9, 16, 25}
	assert.Less(t, pearson(x, squares), 1.0)
	assert.InDelta(t, 1.0, spearman(x, squares), 1e-12)
	assert.InDelta(t, 1.0, kendall(x, squares), 1e-12)

	// two discordant pairs out of ten
	assert.InDelta(t, 0.6, kendall(x, []float64{1, 3, 2, 5, 4}), 1e-12)
	assert.InDelta(t, 0.8, spearman(x, []float64{1, 3, 2, 5, 4}), 1e-12)

	assert.True(t, math.IsNaN(pearson(x, []float64{3, 3, 3, 3, 3})), "no variance")
	assert.True(t, math.IsNaN(kendall([]float64{1}, []float64{2})), "one observation")
	assert.True(t, math.IsNaN(spearman(nil, nil)))
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{1, 2, 2, 3}))
	assert.Equal(t, []float64{3, 1, 2}, ranks([]float64{30, 10, 20}))
}

func TestKendallWithTies(t *testing.T) {
	// tau-b for x = [1,1,2,3], y = [1,2,2,3]: nc = 4, nd = 0, one tie on each side
	got := kendall([]float64{1, 1, 2, 3}, []float64{1, 2, 2, 3})
	assert.InDelta(t, 4.0/5.0, got, 1e-12)
}

func TestCompute(t *testing.T) {
	tbl := table.MustNew(
		ints("a", 1, 2, 3, 4, 5),
		words("label", "p", "q", "r", "s", "t"),
		floats("b", 2, 4, math.NaN(), 8, 10),
	)
	for _, method := range []Method{Pearson, Kendall, Spearman} {
		t.Run(string(method), func(t *testing.T) {
			m, err := Compute(tbl, method)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, m.Names(), "string columns are ignored")
			assert.Equal(t, 1.0, m.At(0, 0))
			assert.Equal(t, m.At(0, 1), m.At(1, 0))

			r, ok := m.Get("a", "b")
			require.True(t, ok)
			assert.InDelta(t, 1.0, r, 1e-12, "missing rows are skipped pairwise")

			_, ok = m.Get("a", "label")
			assert.False(t, ok)
		})
	}

	_, err := Compute(tbl, Method("cosine"))
	assert.Error(t, err)
}

func TestComputeConstantColumn(t *testing.T) {
	m, err := Compute(table.MustNew(ints("a", 1, 2, 3), ints("k", 7, 7, 7)), Pearson)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.At(0, 1)))
	assert.True(t, math.IsNaN(m.At(1, 1)))
}

func TestRound(t *testing.T) {
	m, err := Compute(abc(), Pearson)
	require.NoError(t, err)
	r := m.Round(2)

	v, _ := r.Get("a", "c")
	assert.Equal(t, -0.98, v)
	v, _ = r.Get("a", "b")
	assert.Equal(t, 1.0, v)

	raw, _ := m.Get("a", "c")
	assert.NotEqual(t, -0.98, raw, "Round returns a copy")
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": Pearson, "Pearson": Pearson, " kendall ": Kendall, "SPEARMAN": Spearman} {
		got, err := ParseMethod(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMethod("linear")
	assert.Error(t, err)
}

func TestPruneSignedKeepsNegativelyCorrelated(t *testing.T) {
	out, dropped, err := Prune(abc(), PruneOptions{Threshold: 0.95, Signed: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dropped)
	assert.Equal(t, []string{"a", "c"}, out.Names())
}

func TestPruneAbsolute(t *testing.T) {
	// |corr(a, c)| is about 0.985, so c is redundant with a as well
	out, dropped, err := Prune(abc(), PruneOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, dropped)
	assert.Equal(t, []string{"a"}, out.Names())
}

func TestPruneEarlierColumnWins(t *testing.T) {
	tbl := table.MustNew(
		ints("b", 2, 4, 6, 8, 10),
		ints("a", 1, 2, 3, 4, 5),
	)
	out, dropped, err := Prune(tbl, PruneOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, dropped)
	assert.Equal(t, []string{"b"}, out.Names())
}

func TestPruneLeavesNonNumericColumns(t *testing.T) {
	tbl := table.MustNew(
		words("id", "1", "2", "3", "4"),
		ints("x", 1, 2, 3, 4),
		words("copy", "1", "2", "3", "4"),
		floats("noise", 1, -1, -1, 1),
	)
	out, dropped, err := Prune(tbl, PruneOptions{})
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Same(t, tbl, out)
}

func TestPruneCompareIsStrict(t *testing.T) {
	tbl := table.MustNew(ints("a", 1, 2, 3), ints("b", 1, 2, 3))
	_, dropped, err := Prune(tbl, PruneOptions{Threshold: 1})
	require.NoError(t, err)
	assert.Empty(t, dropped, "a coefficient equal to the threshold does not exceed it")

	_, _, err = Prune(tbl, PruneOptions{Threshold: 1.5})
	assert.Error(t, err)
}
