package settings

import "time"

// Settings holds values that can be overridden from the YAML settings file.
type Settings struct {
	// Maximum number of parsed tables kept in the load cache
	CacheCapacity int `yaml:"cache_capacity" json:"cache_capacity"`
	// Columns whose correlation with an earlier column exceeds this are redundant
	CorrelationThreshold float64 `yaml:"correlation_threshold" json:"correlation_threshold"`
	// Rows per chunk for chunked reads of delimited files
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// Upper bound for a single load; 0 disables the limit
	LoadTimeout time.Duration `yaml:"load_timeout" json:"load_timeout"`
	// "abort" stops a batch at the first failure, "collect" records it and continues
	BatchPolicy string `yaml:"batch_policy" json:"batch_policy"`
	// "rename" suffixes colliding normalized column names, "reject" fails the clean
	NameCollisions string `yaml:"name_collisions" json:"name_collisions"`
	// Cell values read as missing. Unset means the loader defaults; an empty list disables detection
	NAValues []string `yaml:"na_values,omitempty" json:"na_values,omitempty"`
	// Zone assumed for date-times without an offset: "UTC", "Local" or an IANA name
	IngestTimezone string `yaml:"ingest_timezone" json:"ingest_timezone"`
	// JSONPath selecting the records of structured files
	JSONPath string `yaml:"json_path" json:"json_path"`
	// Treat the first row of delimited files and spreadsheets as data
	NoHeaderRow bool `yaml:"no_header_row" json:"no_header_row"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogFormat   string `yaml:"log_format" json:"log_format"`
}

// CacheManager is implemented by the owner of the load cache so that the
// settings service can invalidate it when parse options change.
type CacheManager interface {
	PurgeCache()
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	CacheCapacity:        32,
	CorrelationThreshold: 0.95,
	ChunkSize:            10000,
	LoadTimeout:          0,
	BatchPolicy:          "abort",
	NameCollisions:       "rename",
	// Zone-less timestamps are read as UTC
	IngestTimezone: "UTC",
	JSONPath:       "$",
	NoHeaderRow:    false,
	LogLevel:       "info",
	LogFormat:      "text",
}

// Default returns a copy of the built-in defaults
func Default() Settings {
	return defaultSettings
}
