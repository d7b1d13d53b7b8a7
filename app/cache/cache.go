package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"datasift/app/table"
)

// LoadFunc parses the file behind a cache key
type LoadFunc func(ctx context.Context) (*table.Table, error)

// TableCache keeps recently parsed tables keyed by path and content hash
// with least-recently-used eviction. Stored tables are cloned on the way in
// and on the way out, so a hit is indistinguishable from a fresh load.
type TableCache struct {
	capacity int
	lru      *LRUList[*Entry]
	mutex    sync.Mutex
	group    singleflight.Group
	logger   *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	loads     atomic.Int64
}

// New creates a cache holding at most capacity tables. A non-positive
// capacity means DefaultCapacity.
func New(capacity int) *TableCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TableCache{
		capacity: capacity,
		lru:      NewLRUList[*Entry](),
		logger:   slog.Default(),
	}
}

// NewWithLogger creates a cache that logs hits, misses and evictions.
func NewWithLogger(capacity int, logger *slog.Logger) *TableCache {
	c := New(capacity)
	c.SetLogger(logger)
	return c
}

// SetLogger sets the logger for the cache
func (c *TableCache) SetLogger(logger *slog.Logger) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

// Get retrieves a copy of the cached table and marks it as recently used
func (c *TableCache) Get(path, hash string) (*table.Table, bool) {
	key := Key(path, hash)

	c.mutex.Lock()
	entry, ok := c.lru.Get(key)
	logger := c.logger
	c.mutex.Unlock()

	if !ok {
		c.misses.Add(1)
		logger.Debug("[CACHE_MISS]", "key", key)
		return nil, false
	}
	c.hits.Add(1)
	logger.Debug("[CACHE_HIT]", "key", key, "rows", entry.Rows)
	return entry.Table.Clone(), true
}

// Put stores a copy of t, evicting the least recently used entry when full.
func (c *TableCache) Put(path, hash string, t *table.Table) {
	key := Key(path, hash)
	entry := &Entry{
		Path:     path,
		Hash:     hash,
		Table:    t.Clone(),
		Rows:     t.NumRows(),
		LoadedAt: time.Now(),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lru.AddToFront(key, entry)
	for c.lru.Size() > c.capacity {
		evicted, _, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		c.evictions.Add(1)
		c.logger.Debug("[CACHE_EVICT]", "key", evicted, "capacity", c.capacity)
	}
	c.logger.Debug("[CACHE_STORE]", "key", key, "rows", entry.Rows, "entries", c.lru.Size())
}

// GetOrLoad returns the cached table for (path, hash) or calls load and
// caches its result. Concurrent callers for the same key share one call to
// load. The load runs detached from the caller's cancellation so that one
// caller giving up does not fail the others; each caller still returns as
// soon as its own ctx is done. Failed loads are not cached.
func (c *TableCache) GetOrLoad(ctx context.Context, path, hash string, load LoadFunc) (*table.Table, error) {
	if t, ok := c.Get(path, hash); ok {
		return t, nil
	}

	key := Key(path, hash)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// a concurrent flight may have stored it between Get and DoChan
		c.mutex.Lock()
		entry, ok := c.lru.Peek(key)
		c.mutex.Unlock()
		if ok {
			return entry.Table, nil
		}

		c.loads.Add(1)
		t, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Put(path, hash, t)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*table.Table).Clone(), nil
	}
}

// Remove drops every entry for path regardless of hash and returns how many
// were removed.
func (c *TableCache) Remove(path string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for _, key := range c.lru.Keys() {
		if p, _ := SplitKey(key); p == path {
			c.lru.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("[CACHE_REMOVE]", "path", path, "entries", removed)
	}
	return removed
}

// Purge empties the cache. Counters are kept.
func (c *TableCache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lru.Clear()
	c.logger.Debug("[CACHE_PURGE]")
}

// Len returns the number of cached tables
func (c *TableCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lru.Size()
}

// Capacity returns the maximum number of cached tables
func (c *TableCache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters
func (c *TableCache) Stats() Stats {
	s := Stats{
		Entries:   c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Loads:     c.loads.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
