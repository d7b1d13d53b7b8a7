package fileloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"datasift/app/cache"
	"datasift/app/clean"
	"datasift/app/table"
)

// ParseFunc parses an identified file into a table
type ParseFunc func(ctx context.Context, handle FileHandle, opts Options) (*table.Table, error)

// BatchPolicy decides what LoadBatch does when one file fails
type BatchPolicy string

const (
	// BatchAbort stops at the first failure and returns what loaded so far
	BatchAbort BatchPolicy = "abort"
	// BatchCollect keeps going and records per-file errors
	BatchCollect BatchPolicy = "collect"
)

// Loader identifies, hashes, parses and caches files. It owns its cache
// unless one is injected with WithCache.
type Loader struct {
	cache     *cache.TableCache
	logger    *slog.Logger
	opts      Options
	parsers   map[Format]ParseFunc
	timeout   time.Duration
	policy    BatchPolicy
	chunkSize int
	loc       *time.Location
}

// Option configures a Loader
type Option func(*Loader)

// WithCache shares a cache between loaders
func WithCache(c *cache.TableCache) Option {
	return func(l *Loader) { l.cache = c }
}

// WithLogger sets the logger used for load and error events
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithOptions sets the parsing options
func WithOptions(opts Options) Option {
	return func(l *Loader) { l.opts = opts }
}

// WithParser replaces the parser used for one format
func WithParser(format Format, parse ParseFunc) Option {
	return func(l *Loader) { l.parsers[format] = parse }
}

// WithTimeout bounds each load; zero means no limit
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithBatchPolicy sets the failure policy of LoadBatch
func WithBatchPolicy(p BatchPolicy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithLocation sets the zone of date-times without an offset; nil means UTC
func WithLocation(loc *time.Location) Option {
	return func(l *Loader) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithChunkSize sets the default row count used by Chunks
func WithChunkSize(n int) Option {
	return func(l *Loader) { l.chunkSize = n }
}

// New creates a Loader with a private cache of cache.DefaultCapacity
func New(options ...Option) *Loader {
	l := &Loader{
		logger: slog.Default(),
		opts:   DefaultOptions(),
		parsers: map[Format]ParseFunc{
			FormatDelimited:   parseDelimited,
			FormatSpreadsheet: parseSpreadsheet,
			FormatRecord:      parseRecords,
		},
		policy:    BatchAbort,
		chunkSize: DefaultChunkSize,
		loc:       time.UTC,
	}
	for _, o := range options {
		o(l)
	}
	if l.cache == nil {
		l.cache = cache.NewWithLogger(cache.DefaultCapacity, l.logger)
	}
	return l
}

// Cache returns the cache backing this loader
func (l *Loader) Cache() *cache.TableCache { return l.cache }

func (l *Loader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout > 0 {
		return context.WithTimeout(ctx, l.timeout)
	}
	return context.WithCancel(ctx)
}

// Load returns the table for path, parsing it only when the cache has no
// entry for the file's current content.
func (l *Loader) Load(ctx context.Context, path string) (*table.Table, error) {
	return l.load(ctx, path, true)
}

// LoadUncached parses path without reading or populating the cache
func (l *Loader) LoadUncached(ctx context.Context, path string) (*table.Table, error) {
	return l.load(ctx, path, false)
}

func (l *Loader) load(ctx context.Context, path string, useCache bool) (*table.Table, error) {
	start := time.Now()
	logger := l.logger.With("path", path, "op", "load")
	logger.Info("Loading file")

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	t, err := l.loadTable(ctx, path, useCache)
	if err != nil {
		logger.Error("Error loading file", "error", err)
		return nil, err
	}

	logger.Info("Successfully loaded file",
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"duration", time.Since(start))
	return t, nil
}

func (l *Loader) loadTable(ctx context.Context, path string, useCache bool) (*table.Table, error) {
	if err := checkAccess(path); err != nil {
		return nil, err
	}
	if !useCache {
		handle, err := Identify(path)
		if err != nil {
			return nil, err
		}
		return l.parse(ctx, handle)
	}

	hash, err := CalculateFileHash(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return l.cache.GetOrLoad(ctx, path, hash, func(loadCtx context.Context) (*table.Table, error) {
		loadCtx, cancel := l.withTimeout(loadCtx)
		defer cancel()

		handle, err := Identify(path)
		if err != nil {
			return nil, err
		}
		handle.Hash = hash
		return l.parse(loadCtx, handle)
	})
}

func (l *Loader) parse(ctx context.Context, handle FileHandle) (*table.Table, error) {
	parser, ok := l.parsers[handle.Format]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for %s", ErrUnsupportedFormat, handle.Format)
	}
	t, err := parser(ctx, handle, l.opts)
	if err != nil {
		return nil, newLoadError(handle.Path, handle.Format, err)
	}
	return clean.PromoteKinds(t, l.loc), nil
}

// BatchResult holds the outcome of LoadBatch. Tables only contains files
// that loaded and validated.
type BatchResult struct {
	ID     uuid.UUID
	Paths  []string
	Tables map[string]*table.Table
	Errors map[string]error
}

// Err joins the per-file errors in path order, or returns nil.
func (r *BatchResult) Err() error {
	var errs []error
	for _, p := range r.Paths {
		if err, ok := r.Errors[p]; ok {
			errs = append(errs, &BatchError{Path: p, Err: err})
		}
	}
	return errors.Join(errs...)
}

// LoadBatch loads every path (glob patterns are expanded) and validates
// each table against schema when it is non-empty. With BatchAbort the first
// failure stops the batch and is returned as a *BatchError together with
// the tables loaded before it.
func (l *Loader) LoadBatch(ctx context.Context, inputs []string, schema Schema) (*BatchResult, error) {
	result := &BatchResult{
		ID:     uuid.New(),
		Tables: make(map[string]*table.Table),
		Errors: make(map[string]error),
	}
	logger := l.logger.With("batch", result.ID.String(), "op", "load_batch")

	paths, err := ExpandPaths(inputs)
	if err != nil {
		logger.Error("Error expanding batch paths", "error", err)
		return result, err
	}
	result.Paths = paths
	logger.Info("Loading batch", "files", len(paths), "policy", string(l.policy))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		t, err := l.Load(ctx, path)
		if err == nil {
			if err = ValidateSchema(t, schema); err != nil {
				var se *SchemaError
				if errors.As(err, &se) {
					se.Path = path
				}
				logger.Error("Schema validation failed", "path", path, "error", err)
			}
		}
		if err != nil {
			if l.policy != BatchCollect {
				return result, &BatchError{Path: path, Err: err}
			}
			result.Errors[path] = err
			continue
		}
		result.Tables[path] = t
	}

	logger.Info("Batch complete", "loaded", len(result.Tables), "failed", len(result.Errors))
	return result, nil
}

// PreviewOptions controls Preview. Rows defaults to 5; a positive
// SampleSize adds a random sample, reproducible when Seed is non-zero.
type PreviewOptions struct {
	Rows       int
	SampleSize int
	Seed       uint64
}

// Preview summarizes a loaded file. DataTypes are the inferred column types
// of the loaded table.
type Preview struct {
	Head          *table.Table
	TotalRows     int
	Columns       []string
	DataTypes     map[string]string
	MissingValues map[string]int
	MemoryUsage   int64
	Sample        *table.Table
}

// Preview loads path (through the cache) and summarizes it
func (l *Loader) Preview(ctx context.Context, path string, opts PreviewOptions) (*Preview, error) {
	t, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := opts.Rows
	if rows <= 0 {
		rows = 5
	}
	p := &Preview{
		Head:          t.Head(rows),
		TotalRows:     t.NumRows(),
		Columns:       t.Names(),
		DataTypes:     t.DTypes(),
		MissingValues: t.MissingCounts(),
		MemoryUsage:   t.MemoryUsage(),
	}
	if opts.SampleSize > 0 {
		p.Sample = sampleRows(t, opts.SampleSize, opts.Seed)
	}
	return p, nil
}

// sampleRows draws min(n, rows) rows without replacement
func sampleRows(t *table.Table, n int, seed uint64) *table.Table {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if n > t.NumRows() {
		n = t.NumRows()
	}
	return t.Take(rng.Perm(t.NumRows())[:n])
}

// Chunks opens a delimited file for chunked reading. size <= 0 uses the
// loader's chunk size. The caller must Close the reader.
func (l *Loader) Chunks(ctx context.Context, path string, size int) (*ChunkReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, err := Identify(path)
	if err != nil {
		l.logger.Error("Error opening chunked reader", "path", path, "op", "chunks", "error", err)
		return nil, err
	}
	if handle.Format != FormatDelimited {
		err := fmt.Errorf("%w: chunked loading needs delimited text, %s is %s", ErrUnsupportedFormat, path, handle.Format)
		l.logger.Error("Error opening chunked reader", "path", path, "op", "chunks", "error", err)
		return nil, err
	}
	if size <= 0 {
		size = l.chunkSize
	}
	r, err := newChunkReader(handle, l.opts, size)
	if err != nil {
		return nil, newLoadError(path, FormatDelimited, err)
	}
	loc := l.loc
	r.promote = func(t *table.Table) *table.Table { return clean.PromoteKinds(t, loc) }
	return r, nil
}
