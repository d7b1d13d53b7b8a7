// Package clean turns a loaded table into a normalized, typed, null-free
// table: exact duplicate rows are dropped, column names are canonicalized,
// string columns are promoted to richer kinds where every value allows it,
// and the remaining missing values are filled per kind.
package clean

import (
	"log/slog"
	"time"

	"datasift/app/table"
)

// Cleaner runs the cleaning pipeline. The zero value is not usable; use New.
type Cleaner struct {
	logger     *slog.Logger
	loc        *time.Location
	collisions CollisionPolicy
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cleaner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLocation sets the zone used for date-times that carry no offset
func WithLocation(loc *time.Location) Option {
	return func(c *Cleaner) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithCollisionPolicy sets how duplicate normalized names are handled
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(c *Cleaner) { c.collisions = p }
}

// New creates a Cleaner that reads zone-less date-times as UTC and renames
// colliding columns.
func New(options ...Option) *Cleaner {
	c := &Cleaner{
		logger:     slog.Default(),
		loc:        time.UTC,
		collisions: CollisionRename,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Report describes what Clean changed
type Report struct {
	InputRows         int
	DuplicatesDropped int
	Renamed           []Rename
	Kinds             map[string]table.Kind
	Filled            map[string]int
}

// Clean runs dedupe, name normalization, type inference and the null policy,
// in that order. The input table is not modified.
func (c *Cleaner) Clean(t *table.Table) (*table.Table, *Report, error) {
	start := time.Now()
	report := &Report{
		InputRows: t.NumRows(),
		Kinds:     make(map[string]table.Kind, t.NumCols()),
		Filled:    make(map[string]int),
	}

	deduped, dropped := Dedupe(t)
	report.DuplicatesDropped = dropped

	names, renames, err := NormalizeNames(deduped.Names(), c.collisions)
	if err != nil {
		c.logger.Error("Column name collision", "op", "clean", "error", err)
		return nil, nil, err
	}
	report.Renamed = renames

	cols := make([]table.Column, deduped.NumCols())
	for i, col := range deduped.Columns() {
		col.Name = names[i]
		inferred := ColumnOf(Infer(col, c.loc))
		if n := inferred.MissingCount(); n > 0 {
			report.Filled[inferred.Name] = n
		}
		filled := FillMissing(inferred)
		report.Kinds[filled.Name] = filled.Kind
		cols[i] = filled
	}

	out, err := deduped.WithColumns(cols)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Info("Cleaned table",
		"op", "clean",
		"rows", out.NumRows(),
		"columns", out.NumCols(),
		"duplicates", dropped,
		"renamed", len(renames),
		"duration", time.Since(start))
	return out, report, nil
}

// InferTypes promotes every string column of t without renaming, deduping or
// filling.
func (c *Cleaner) InferTypes(t *table.Table) *table.Table {
	cols := make([]table.Column, t.NumCols())
	for i, col := range t.Columns() {
		r := Infer(col, c.loc)
		if typed, ok := r.(Typed); ok && col.Kind == table.KindString {
			c.logger.Debug("Inferred column type", "column", col.Name, "kind", typed.Kind.String())
		}
		cols[i] = ColumnOf(r)
	}
	// inference never changes column length
	out, _ := t.WithColumns(cols)
	return out
}
