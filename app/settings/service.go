package settings

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsService reads and writes one settings file.
type SettingsService struct {
	path         string
	cacheManager CacheManager
}

// NewSettingsService manages the file at path; empty means FileName next
// to the executable.
func NewSettingsService(path string) *SettingsService {
	return &SettingsService{path: path}
}

// SetCacheManager allows the owner of the load cache to be told about
// changes that make cached tables stale
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Path returns the settings file location
func (s *SettingsService) Path() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	return settingsFilePath()
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	return Load(s.path)
}

// SaveSettings writes the values that differ from the defaults. When only
// defaults remain the file is removed.
func (s *SettingsService) SaveSettings(in Settings) error {
	if err := in.Validate(); err != nil {
		return err
	}
	old, err := s.GetSettings()
	if err != nil {
		old = defaultSettings
	}
	parseChanged := old.NoHeaderRow != in.NoHeaderRow ||
		old.JSONPath != in.JSONPath ||
		!slices.Equal(old.NAValues, in.NAValues) ||
		(old.NAValues == nil) != (in.NAValues == nil)

	// Build a minimal map containing only non-default values to avoid zero-value serialization pitfalls
	data := make(map[string]any)
	if in.CacheCapacity != defaultSettings.CacheCapacity {
		data["cache_capacity"] = in.CacheCapacity
	}
	if in.CorrelationThreshold != defaultSettings.CorrelationThreshold {
		data["correlation_threshold"] = in.CorrelationThreshold
	}
	if in.ChunkSize != defaultSettings.ChunkSize {
		data["chunk_size"] = in.ChunkSize
	}
	if in.LoadTimeout != defaultSettings.LoadTimeout {
		data["load_timeout"] = in.LoadTimeout.String()
	}
	if in.BatchPolicy != defaultSettings.BatchPolicy {
		data["batch_policy"] = in.BatchPolicy
	}
	if in.NameCollisions != defaultSettings.NameCollisions {
		data["name_collisions"] = in.NameCollisions
	}
	if in.NAValues != nil {
		data["na_values"] = in.NAValues
	}
	if strings.TrimSpace(in.IngestTimezone) != defaultSettings.IngestTimezone {
		data["ingest_timezone"] = strings.TrimSpace(in.IngestTimezone)
	}
	if in.JSONPath != defaultSettings.JSONPath {
		data["json_path"] = in.JSONPath
	}
	if in.NoHeaderRow != defaultSettings.NoHeaderRow {
		data["no_header_row"] = in.NoHeaderRow
	}
	if in.LogLevel != defaultSettings.LogLevel {
		data["log_level"] = in.LogLevel
	}
	if in.LogFormat != defaultSettings.LogFormat {
		data["log_format"] = in.LogFormat
	}

	path, err := s.Path()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		// If there is an existing file, remove it to reflect defaults-only state
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else {
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
	}

	// Tables parsed under the old options no longer match a fresh load
	if parseChanged && s.cacheManager != nil {
		s.cacheManager.PurgeCache()
	}
	return nil
}
