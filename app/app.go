// Package app wires settings, the file loader, the cleaning pipeline and the
// correlation code into one service used by the command line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datasift/app/cache"
	"datasift/app/clean"
	"datasift/app/correlation"
	"datasift/app/fileloader"
	"datasift/app/settings"
	"datasift/app/table"
	"datasift/app/timestamps"
)

// Table and CleanReport are re-exported so callers of App only need this
// package for the common types.
type (
	Table       = table.Table
	CleanReport = clean.Report
)

var _ settings.CacheManager = (*App)(nil)

// App struct
type App struct {
	settings settings.Settings
	logger   *slog.Logger

	cache   *cache.TableCache
	loader  *fileloader.Loader
	cleaner *clean.Cleaner
}

// NewApp creates an App configured from s. A nil logger means slog.Default.
func NewApp(s settings.Settings, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	loc, err := timestamps.LocationForTZ(s.IngestTimezone)
	if err != nil {
		return nil, err
	}
	collisions, err := clean.ParseCollisionPolicy(s.NameCollisions)
	if err != nil {
		return nil, err
	}

	a := &App{
		settings: s,
		logger:   logger,
		cache:    cache.NewWithLogger(s.CacheCapacity, logger),
	}
	a.loader = fileloader.New(
		fileloader.WithCache(a.cache),
		fileloader.WithLogger(logger),
		fileloader.WithOptions(fileloader.Options{
			NoHeaderRow: s.NoHeaderRow,
			JSONPath:    s.JSONPath,
			NAValues:    s.NAValues,
		}),
		fileloader.WithTimeout(s.LoadTimeout),
		fileloader.WithBatchPolicy(fileloader.BatchPolicy(s.BatchPolicy)),
		fileloader.WithChunkSize(s.ChunkSize),
		fileloader.WithLocation(loc),
	)
	a.cleaner = clean.New(
		clean.WithLogger(logger),
		clean.WithLocation(loc),
		clean.WithCollisionPolicy(collisions),
	)
	return a, nil
}

// Settings returns the settings the app was built with
func (a *App) Settings() settings.Settings {
	return a.settings
}

// Load returns the table for path, served from the cache when the file is
// unchanged
func (a *App) Load(ctx context.Context, path string) (*Table, error) {
	return a.loader.Load(ctx, path)
}

// LoadBatch loads paths (glob patterns allowed) and validates each table
// against schema when it is non-empty
func (a *App) LoadBatch(ctx context.Context, paths []string, schema fileloader.Schema) (*fileloader.BatchResult, error) {
	return a.loader.LoadBatch(ctx, paths, schema)
}

// Preview summarizes a file without cleaning it
func (a *App) Preview(ctx context.Context, path string, opts fileloader.PreviewOptions) (*fileloader.Preview, error) {
	return a.loader.Preview(ctx, path, opts)
}

// Chunks opens a delimited file for chunked reading; size <= 0 uses the
// chunk_size setting
func (a *App) Chunks(ctx context.Context, path string, size int) (*fileloader.ChunkReader, error) {
	return a.loader.Chunks(ctx, path, size)
}

// Clean loads path and runs dedupe, name normalization, type inference and
// the null policy over it
func (a *App) Clean(ctx context.Context, path string) (*CleanResponse, error) {
	t, err := a.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	out, report, err := a.cleaner.Clean(t)
	if err != nil {
		a.logger.Error("Error cleaning file", "path", path, "op", "clean", "error", err)
		return nil, fmt.Errorf("failed to clean %s: %w", path, err)
	}
	return &CleanResponse{Table: out, Report: report}, nil
}

// typed loads path and infers column kinds without renaming or filling, so
// correlation sees the numeric columns under their original names
func (a *App) typed(ctx context.Context, path string) (*Table, error) {
	t, err := a.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.cleaner.InferTypes(t), nil
}

// Correlation returns the correlation matrix of the numeric columns of path,
// rounded to two decimal places
func (a *App) Correlation(ctx context.Context, path string, method correlation.Method) (*correlation.Matrix, error) {
	start := time.Now()
	t, err := a.typed(ctx, path)
	if err != nil {
		return nil, err
	}
	m, err := correlation.Compute(t, method)
	if err != nil {
		a.logger.Error("Error computing correlation", "path", path, "op", "correlation", "error", err)
		return nil, err
	}
	a.logger.Info("Computed correlation matrix",
		"path", path,
		"method", string(method),
		"columns", m.Size(),
		"duration", time.Since(start))
	return m.Round(2), nil
}

// CorrelationPearson returns the linear correlation matrix of path
func (a *App) CorrelationPearson(ctx context.Context, path string) (*correlation.Matrix, error) {
	return a.Correlation(ctx, path, correlation.Pearson)
}

// CorrelationKendall returns the rank-concordance correlation matrix of path
func (a *App) CorrelationKendall(ctx context.Context, path string) (*correlation.Matrix, error) {
	return a.Correlation(ctx, path, correlation.Kendall)
}

// CorrelationSpearman returns the rank-monotonic correlation matrix of path
func (a *App) CorrelationSpearman(ctx context.Context, path string) (*correlation.Matrix, error) {
	return a.Correlation(ctx, path, correlation.Spearman)
}

// RemoveRedundant returns the table of path without the numeric columns that
// correlate above the correlation_threshold setting with an earlier column.
func (a *App) RemoveRedundant(ctx context.Context, path string, opts correlation.PruneOptions) (*PruneResponse, error) {
	t, err := a.typed(ctx, path)
	if err != nil {
		return nil, err
	}
	if opts.Threshold == 0 {
		opts.Threshold = a.settings.CorrelationThreshold
	}
	out, dropped, err := correlation.Prune(t, opts)
	if err != nil {
		a.logger.Error("Error removing redundant columns", "path", path, "op", "prune", "error", err)
		return nil, err
	}
	a.logger.Info("Removed redundant columns", "path", path, "dropped", dropped)
	return &PruneResponse{Table: out, Dropped: dropped}, nil
}

// PurgeCache empties the load cache. It satisfies settings.CacheManager.
func (a *App) PurgeCache() {
	a.cache.Purge()
}

// GetCacheStats returns the current cache statistics
func (a *App) GetCacheStats() CacheStatsResponse {
	stats := a.cache.Stats()
	return CacheStatsResponse{
		Entries:   stats.Entries,
		Capacity:  stats.Capacity,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
		Loads:     stats.Loads,
		HitRate:   stats.HitRate,
	}
}
