package cache

import (
	"time"

	"datasift/app/table"
)

// DefaultCapacity is the number of tables kept when no capacity is given
const DefaultCapacity = 32

// Entry is a cached parse result
type Entry struct {
	Path     string
	Hash     string
	Table    *table.Table
	Rows     int
	LoadedAt time.Time
}

// Stats contains cache statistics
type Stats struct {
	Entries   int
	Capacity  int
	Hits      int64
	Misses    int64
	Evictions int64
	// Loads counts calls into the load function; with single-flight it can
	// be lower than Misses.
	Loads   int64
	HitRate float64
}
