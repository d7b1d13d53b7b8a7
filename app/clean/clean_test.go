package clean

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasift/app/table"
)

func blank(s string) bool { return s == "" }

func strCol(name string, values ...string) table.Column {
	return table.NewStringColumn(name, values, blank)
}

func quietCleaner(options ...Option) *Cleaner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(logger)}, options...)...)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		" Date Joined ":   "date_joined",
		"First\t \nName":  "first_name",
		"Total ($)":       "total_",
		"already_ok_123":  "already_ok_123",
		"Ünïcode Name":    "ncode_name",
		"a-b.c":           "abc",
		"":                "",
		"  MIXED  case  ": "mixed_case",
	}
	for in, want := range tests {
		got := NormalizeName(in)
		assert.Equal(t, want, got, "NormalizeName(%q)", in)
		assert.Equal(t, got, NormalizeName(got), "not idempotent for %q", in)
	}
}

func TestNormalizeNamesCollisions(t *testing.T) {
	names, renames, err := NormalizeNames([]string{"Name", " name ", "NAME!", "name_1", "id"}, CollisionRename)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "name_1", "name_2", "name_1_1", "id"}, names)
	assert.Contains(t, renames, Rename{From: " name ", To: "name_1"})
	assert.NotContains(t, renames, Rename{From: "id", To: "id"})

	_, _, err = NormalizeNames([]string{"Name", " name "}, CollisionReject)
	var nce *NameCollisionError
	require.True(t, errors.As(err, &nce))
	assert.Equal(t, "name", nce.Name)
	assert.Equal(t, []string{"Name", " name "}, nce.Columns)

	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionRename, p)
	_, err = ParseCollisionPolicy("merge")
	assert.Error(t, err)
}

func TestInferAllOrNothing(t *testing.T) {
	r := Infer(strCol("n", "1", "2", "x"), nil)
	untyped, ok := r.(Untyped)
	require.True(t, ok, "one bad value keeps the column a string")
	assert.Equal(t, table.KindString, untyped.Column.Kind)

	r = Infer(strCol("n", "1", "2", "3"), nil)
	typed, ok := r.(Typed)
	require.True(t, ok)
	assert.Equal(t, table.KindInteger, typed.Kind)
	assert.Equal(t, int64(3), typed.Column.Values[2].Int())
}

func TestInferKinds(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   table.Kind
	}{
		{"floats", []string{"1.5", "2", "-3e2"}, table.KindFloat},
		{"dates", []string{"2024-01-02", "2024-02-03"}, table.KindDateTime},
		{"datetimes", []string{"2024-01-02 10:00:00", "2024-02-03 11:30:00"}, table.KindDateTime},
		{"integers are not dates", []string{"20240102", "20240103"}, table.KindInteger},
		{"durations", []string{"1h30m", "45m", " 2h "}, table.KindDuration},
		{"mixed date layouts", []string{"2024-01-02", "2024-01-02T03:04:05Z"}, table.KindString},
		{"words", []string{"alpha", "beta"}, table.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := ColumnOf(Infer(strCol("c", tt.values...), time.UTC))
			assert.Equal(t, tt.want, col.Kind)
		})
	}
}

func TestInferOrderIndependent(t *testing.T) {
	a := ColumnOf(Infer(strCol("c", "1", "2.5", "3"), nil))
	b := ColumnOf(Infer(strCol("c", "3", "1", "2.5"), nil))
	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, table.KindFloat, a.Kind)
}

func TestInferMissingAndBlank(t *testing.T) {
	col := table.Column{Name: "c", Kind: table.KindString, Values: []table.Value{
		table.String(" 1 "), table.String("  "), table.Missing(), table.String("3"),
	}}
	out := ColumnOf(Infer(col, nil))
	require.Equal(t, table.KindInteger, out.Kind)
	assert.Equal(t, int64(1), out.Values[0].Int())
	assert.True(t, out.Values[1].IsMissing())
	assert.True(t, out.Values[2].IsMissing())
	assert.Equal(t, int64(3), out.Values[3].Int())

	// a column with nothing to test passes through unchanged
	empty := strCol("e", "", "")
	r := Infer(empty, nil)
	assert.Equal(t, Untyped{Column: empty}, r)
}

func TestInferTrimsStrings(t *testing.T) {
	out := ColumnOf(Infer(strCol("c", " a ", "b  ", ""), nil))
	assert.Equal(t, table.KindString, out.Kind)
	assert.Equal(t, "a", out.Values[0].Str())
	assert.Equal(t, "b", out.Values[1].Str())
	assert.True(t, out.Values[2].IsMissing())
}

func TestInferPassesThroughTypedColumns(t *testing.T) {
	col := table.Column{Name: "f", Kind: table.KindFloat, Values: []table.Value{table.Float(1), table.Missing()}}
	r := Infer(col, nil)
	assert.Equal(t, Typed{Kind: table.KindFloat, Column: col}, r)
}

func TestInferUsesLocation(t *testing.T) {
	loc := time.FixedZone("minus5", -5*3600)
	out := ColumnOf(Infer(strCol("d", "2024-01-02 00:00:00"), loc))
	require.Equal(t, table.KindDateTime, out.Kind)
	assert.True(t, out.Values[0].Time().Equal(time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)))
}

func TestFillMissing(t *testing.T) {
	ints := FillMissing(table.Column{Name: "i", Kind: table.KindInteger, Values: []table.Value{table.Int(4), table.Missing()}})
	assert.Equal(t, int64(0), ints.Values[1].Int())
	assert.True(t, ints.Values[1].IsPresent())

	floats := FillMissing(table.Column{Name: "f", Kind: table.KindFloat, Values: []table.Value{table.Missing()}})
	assert.Equal(t, 0.0, floats.Values[0].Float())

	times := FillMissing(table.Column{Name: "t", Kind: table.KindDateTime, Values: []table.Value{table.Missing(), table.Time(time.Unix(0, 0))}})
	assert.True(t, times.Values[0].IsNoValue())
	assert.Equal(t, 0, times.MissingCount())
	assert.False(t, times.Values[0].Equal(times.Values[1], table.KindDateTime))

	strs := FillMissing(strCol("s", "x", ""))
	assert.Equal(t, UnknownValue, strs.Values[1].Str())

	durs := FillMissing(table.Column{Name: "d", Kind: table.KindDuration, Values: []table.Value{table.Duration(time.Minute), table.Missing()}})
	assert.Equal(t, table.KindString, durs.Kind)
	assert.Equal(t, []string{"1m0s", UnknownValue}, durs.Strings())

	complete := table.Column{Name: "d", Kind: table.KindDuration, Values: []table.Value{table.Duration(time.Second)}}
	assert.Equal(t, complete, FillMissing(complete))
}

func TestDedupe(t *testing.T) {
	tbl := table.MustNew(
		strCol("a", "x", "x", "y", "x", ""),
		strCol("b", "1", "1", "1", "2", ""),
		strCol("c", "k", "k", "k", "k", ""),
	).Take([]int{0, 1, 2, 3, 4, 4})

	out, dropped := Dedupe(tbl)
	assert.Equal(t, 2, dropped, "missing equals missing")
	assert.Equal(t, 4, out.NumRows())
	assert.Equal(t, []string{"x", "y", "x", ""}, out.ColumnAt(0).Strings())

	same, dropped := Dedupe(out)
	assert.Equal(t, 0, dropped)
	assert.Same(t, out, same)
}

func fixture() *table.Table {
	return table.MustNew(
		strCol(" Date Joined ", "2024-01-05", "2024-01-05", "", "2024-03-01"),
		strCol("Score", "10", "10", "12", ""),
		strCol("Name", "alice", "alice", " bob ", ""),
		strCol("Ratio", "", "", "1.5", "2.5"),
	)
}

func TestClean(t *testing.T) {
	out, report, err := quietCleaner().Clean(fixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"date_joined", "score", "name", "ratio"}, out.Names())
	assert.Equal(t, 3, out.NumRows(), "the duplicated first row is dropped")
	assert.Equal(t, 0, out.TotalMissing())

	assert.Equal(t, 4, report.InputRows)
	assert.Equal(t, 1, report.DuplicatesDropped)
	assert.Len(t, report.Renamed, 4)
	assert.Equal(t, map[string]table.Kind{
		"date_joined": table.KindDateTime,
		"score":       table.KindInteger,
		"name":        table.KindString,
		"ratio":       table.KindFloat,
	}, report.Kinds)
	assert.Equal(t, map[string]int{"date_joined": 1, "score": 1, "name": 1, "ratio": 1}, report.Filled)

	date, _ := out.Column("date_joined")
	assert.True(t, date.Values[1].IsNoValue())
	score, _ := out.Column("score")
	assert.Equal(t, []string{"10", "12", "0"}, score.Strings())
	name, _ := out.Column("name")
	assert.Equal(t, []string{"alice", "bob", UnknownValue}, name.Strings())
	ratio, _ := out.Column("ratio")
	assert.Equal(t, []string{"0", "1.5", "2.5"}, ratio.Strings())
}

func TestCleanIsIdempotent(t *testing.T) {
	c := quietCleaner()
	once, _, err := c.Clean(fixture())
	require.NoError(t, err)
	twice, report, err := c.Clean(once)
	require.NoError(t, err)

	assert.Equal(t, once.Names(), twice.Names())
	assert.Equal(t, once.NumRows(), twice.NumRows())
	assert.True(t, once.Equal(twice))
	assert.Empty(t, report.Renamed)
	assert.Zero(t, report.DuplicatesDropped)
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	in := fixture()
	before := in.Clone()
	_, _, err := quietCleaner().Clean(in)
	require.NoError(t, err)
	assert.True(t, before.Equal(in))
}

func TestCleanRejectsCollisions(t *testing.T) {
	tbl := table.MustNew(strCol("Total", "1"), strCol("total ", "2"))

	_, _, err := quietCleaner(WithCollisionPolicy(CollisionReject)).Clean(tbl)
	var nce *NameCollisionError
	assert.True(t, errors.As(err, &nce))

	out, _, err := quietCleaner().Clean(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "total_1"}, out.Names())
}

func TestInferTypesKeepsNames(t *testing.T) {
	out := quietCleaner().InferTypes(fixture())
	assert.Equal(t, fixture().Names(), out.Names())
	score, _ := out.Column("Score")
	assert.Equal(t, table.KindInteger, score.Kind)
	assert.Equal(t, 1, score.MissingCount())
}

func TestPromoteKinds(t *testing.T) {
	in := table.MustNew(
		strCol("n", "1", " 2 ", ""),
		strCol("note", " a ", "b", "c"),
	)
	out := PromoteKinds(in, nil)

	n, _ := out.Column("n")
	assert.Equal(t, table.KindInteger, n.Kind)
	assert.Equal(t, int64(2), n.Values[1].Int())
	note, _ := out.Column("note")
	assert.Equal(t, " a ", note.Values[0].Str(), "string columns are not trimmed")

	words := table.MustNew(strCol("note", "x", "y"))
	assert.Same(t, words, PromoteKinds(words, nil))
}
