package app

// CacheStatsResponse mirrors the load cache counters for display
type CacheStatsResponse struct {
	Entries   int     `json:"entries"`
	Capacity  int     `json:"capacity"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Loads     int64   `json:"loads"`
	HitRate   float64 `json:"hitRate"`
}

// CleanResponse is the cleaned table together with what the pipeline changed
type CleanResponse struct {
	Table  *Table
	Report *CleanReport
}

// PruneResponse is the table without its redundant columns
type PruneResponse struct {
	Table   *Table
	Dropped []string
}
