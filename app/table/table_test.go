package table

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(
		NewStringColumn("name", []string{"ann", "bob", ""}, func(s string) bool { return s == "" }),
		Column{Name: "age", Kind: KindInteger, Values: []Value{Int(30), Missing(), Int(41)}},
		Column{Name: "score", Kind: KindFloat, Values: []Value{Float(1.5), Float(2), Missing()}},
	)
	require.NoError(t, err)
	return tbl
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New(
		Column{Name: "a", Kind: KindInteger, Values: []Value{Int(1), Int(2)}},
		Column{Name: "b", Kind: KindInteger, Values: []Value{Int(1)}},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRaggedColumns))
}

func TestTableShape(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
	assert.Equal(t, []string{"name", "age", "score"}, tbl.Names())

	empty, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
	assert.Equal(t, 0, empty.NumCols())
}

func TestMissingCounts(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, map[string]int{"name": 1, "age": 1, "score": 1}, tbl.MissingCounts())
	assert.Equal(t, 3, tbl.TotalMissing())
}

func TestDTypes(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, map[string]string{"name": "object", "age": "int64", "score": "float64"}, tbl.DTypes())
}

func TestHeadTakeDrop(t *testing.T) {
	tbl := sampleTable(t)

	head := tbl.Head(2)
	assert.Equal(t, 2, head.NumRows())
	assert.Equal(t, "ann", head.ColumnAt(0).Values[0].Str())

	assert.Equal(t, 3, tbl.Head(10).NumRows())
	assert.Equal(t, 0, tbl.Head(-1).NumRows())

	taken := tbl.Take([]int{2, 0})
	age, ok := taken.Column("age")
	require.True(t, ok)
	assert.Equal(t, int64(41), age.Values[0].Int())
	assert.Equal(t, int64(30), age.Values[1].Int())

	dropped := tbl.Drop("age")
	assert.Equal(t, []string{"name", "score"}, dropped.Names())
	assert.Equal(t, 3, dropped.NumRows())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := sampleTable(t)
	cp := tbl.Clone()
	require.True(t, tbl.Equal(cp))

	cp.Columns()[1].Values[0] = Int(99)
	assert.False(t, tbl.Equal(cp))
	age, _ := tbl.Column("age")
	assert.Equal(t, int64(30), age.Values[0].Int())
}

func TestEqualTreatsMissingAsEqual(t *testing.T) {
	a := MustNew(Column{Name: "x", Kind: KindFloat, Values: []Value{Missing(), Float(math.NaN())}})
	b := MustNew(Column{Name: "x", Kind: KindFloat, Values: []Value{Missing(), Float(math.NaN())}})
	assert.True(t, a.Equal(b))

	c := MustNew(Column{Name: "x", Kind: KindInteger, Values: []Value{Missing(), Int(0)}})
	assert.False(t, a.Equal(c))
}

func TestRowKey(t *testing.T) {
	when := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	tbl := MustNew(
		Column{Name: "s", Kind: KindString, Values: []Value{String("a"), String("a"), String("a\x1f"), Missing()}},
		Column{Name: "t", Kind: KindDateTime, Values: []Value{Time(when), Time(when.In(time.FixedZone("x", 3600))), Time(when), NoTime()}},
	)
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(1), "same instant in another zone is the same row")
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(2))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(3))
}

func TestValueFormat(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		want string
	}{
		{"missing", Missing(), KindInteger, ""},
		{"no value", NoTime(), KindDateTime, "NaT"},
		{"int", Int(-7), KindInteger, "-7"},
		{"float", Float(0.25), KindFloat, "0.25"},
		{"duration", Duration(90 * time.Minute), KindDuration, "1h30m0s"},
		{"string", String("x"), KindString, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Format(tt.kind))
		})
	}
}

func TestNumber(t *testing.T) {
	f, ok := Int(3).Number(KindInteger)
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = Float(math.NaN()).Number(KindFloat)
	assert.False(t, ok)

	_, ok = Missing().Number(KindFloat)
	assert.False(t, ok)

	_, ok = String("3").Number(KindString)
	assert.False(t, ok)
}

func TestMemoryUsageGrowsWithData(t *testing.T) {
	small := MustNew(NewStringColumn("a", []string{"x"}, nil))
	large := MustNew(NewStringColumn("a", []string{"x", "a much longer string value"}, nil))
	assert.Greater(t, large.MemoryUsage(), small.MemoryUsage())
}
