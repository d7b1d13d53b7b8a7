package fileloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasift/app/cache"
	"datasift/app/table"
)

func countingLoader(calls *atomic.Int32, options ...Option) *Loader {
	counting := func(ctx context.Context, h FileHandle, o Options) (*table.Table, error) {
		calls.Add(1)
		return parseDelimited(ctx, h, o)
	}
	options = append([]Option{WithLogger(quietLogger()), WithParser(FormatDelimited, counting)}, options...)
	return New(options...)
}

func TestLoadUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	var calls atomic.Int32
	l := countingLoader(&calls)
	ctx := context.Background()

	first, err := l.Load(ctx, path)
	require.NoError(t, err)
	second, err := l.Load(ctx, path)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, int32(1), calls.Load(), "second load must come from the cache")

	// mutating a returned table does not affect later hits
	first.Columns()[0].Values[0] = table.String("mallory")
	third, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, third.Equal(second))
}

func TestLoadReparsesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	var calls atomic.Int32
	l := countingLoader(&calls)
	ctx := context.Background()

	_, err := l.Load(ctx, path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(peopleCSV+"Dan,52,SEA\n"), 0o644))

	tbl, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.NumRows())
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoadUncachedAlwaysParses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	var calls atomic.Int32
	l := countingLoader(&calls)

	for i := 0; i < 2; i++ {
		_, err := l.LoadUncached(context.Background(), path)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, l.Cache().Len())
}

func TestLoadSharedCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	shared := cache.New(4)
	var calls atomic.Int32

	_, err := countingLoader(&calls, WithCache(shared)).Load(context.Background(), path)
	require.NoError(t, err)
	_, err = countingLoader(&calls, WithCache(shared)).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	l := New(WithLogger(quietLogger()))
	ctx := context.Background()

	_, err := l.Load(ctx, filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Load(ctx, writeFile(t, dir, "notes.txt", "words words\nmore words\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(ctx, writeFile(t, dir, "wide.csv", "a\n1\n1,2\n"))
	var le *LoadError
	assert.True(t, errors.As(err, &le))
}

func TestLoadTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	slow := func(ctx context.Context, h FileHandle, o Options) (*table.Table, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	l := New(WithLogger(quietLogger()), WithParser(FormatDelimited, slow), WithTimeout(20*time.Millisecond))

	_, err := l.Load(context.Background(), path)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadPromotesKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mixed.csv", "when,n,ratio,wait,note\n2024-01-05 10:00:00,1,0.5,1h,x\n2024-01-06 11:30:00,,2,30m, y \n")
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	l := New(WithLogger(quietLogger()), WithLocation(tokyo))

	tbl, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"when":  "datetime64[ns]",
		"n":     "int64",
		"ratio": "float64",
		"wait":  "timedelta64[ns]",
		"note":  "object",
	}, tbl.DTypes())

	when, _ := tbl.Column("when")
	assert.Equal(t, tokyo, when.Values[0].Time().Location())
	n, _ := tbl.Column("n")
	assert.True(t, n.Values[1].IsMissing())
	note, _ := tbl.Column("note")
	assert.Equal(t, " y ", note.Values[1].Str(), "string columns keep their text")
}

func TestLoadBatchSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", "name,age\nann,30\nbob,41\n")
	l := New(WithLogger(quietLogger()))

	res, err := l.LoadBatch(context.Background(), []string{path}, Schema{"name": "object", "age": "int64"})
	require.NoError(t, err)
	assert.Contains(t, res.Tables, path)

	mixed := writeFile(t, dir, "mixed.csv", "name,age\nann,30\nbob,x\n")
	_, err = l.LoadBatch(context.Background(), []string{mixed}, Schema{"age": "int64"})
	var se *SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "age", se.Column)
	assert.Equal(t, "int64", se.Expected)
	assert.Equal(t, "object", se.Actual)
	assert.Equal(t, mixed, se.Path)

	_, err = l.LoadBatch(context.Background(), []string{path}, Schema{"salary": "float64"})
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Missing)
	assert.Equal(t, "salary", se.Column)
}

func TestLoadBatchAbort(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.csv", peopleCSV)
	missing := filepath.Join(dir, "b.csv")
	after := writeFile(t, dir, "c.csv", peopleCSV)
	l := New(WithLogger(quietLogger()))

	res, err := l.LoadBatch(context.Background(), []string{good, missing, after}, nil)
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, missing, be.Path)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, res.Tables, good, "earlier results are kept")
	assert.NotContains(t, res.Tables, after)
}

func TestLoadBatchCollect(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.csv", peopleCSV)
	missing := filepath.Join(dir, "b.csv")
	after := writeFile(t, dir, "c.csv", peopleCSV)
	l := New(WithLogger(quietLogger()), WithBatchPolicy(BatchCollect))

	res, err := l.LoadBatch(context.Background(), []string{good, missing, after}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Tables, 2)
	assert.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[missing], ErrNotFound)
	assert.ErrorIs(t, res.Err(), ErrNotFound)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.ID.String())
}

func TestLoadBatchGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x/one.csv", peopleCSV)
	writeFile(t, dir, "x/y/two.csv", peopleCSV)
	writeFile(t, dir, "x/skip.json", `[{"a": 1}]`)
	l := New(WithLogger(quietLogger()))

	res, err := l.LoadBatch(context.Background(), []string{filepath.Join(dir, "x", "**", "*.csv")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "x", "one.csv"),
		filepath.Join(dir, "x", "y", "two.csv"),
	}, res.Paths)
	assert.Len(t, res.Tables, 2)

	_, err = ExpandPaths([]string{filepath.Join(dir, "*.parquet")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", peopleCSV)
	l := New(WithLogger(quietLogger()))

	p, err := l.Preview(context.Background(), path, PreviewOptions{Rows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Head.NumRows())
	assert.Equal(t, 3, p.TotalRows)
	assert.Equal(t, []string{"Name", "Age", "City"}, p.Columns)
	assert.Equal(t, map[string]string{"Name": "object", "Age": "int64", "City": "object"}, p.DataTypes)
	assert.Equal(t, 1, p.MissingValues["Age"])
	assert.Greater(t, p.MemoryUsage, int64(0))
	assert.Nil(t, p.Sample)

	p, err = l.Preview(context.Background(), path, PreviewOptions{SampleSize: 10, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Head.NumRows())
	require.NotNil(t, p.Sample)
	assert.Equal(t, 3, p.Sample.NumRows())

	again, err := l.Preview(context.Background(), path, PreviewOptions{SampleSize: 2, Seed: 7})
	require.NoError(t, err)
	third, err := l.Preview(context.Background(), path, PreviewOptions{SampleSize: 2, Seed: 7})
	require.NoError(t, err)
	assert.True(t, again.Sample.Equal(third.Sample), "same seed gives the same sample")
}

func TestCalculateFileHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", peopleCSV)
	b := writeFile(t, dir, "b.csv", peopleCSV)
	c := writeFile(t, dir, "c.csv", peopleCSV+"x,1,y\n")
	ctx := context.Background()

	ha, err := CalculateFileHash(ctx, a)
	require.NoError(t, err)
	hb, err := CalculateFileHash(ctx, b)
	require.NoError(t, err)
	hc, err := CalculateFileHash(ctx, c)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)

	_, err = CalculateFileHashWithKey(ctx, a, []byte("short"))
	assert.Error(t, err)
}
