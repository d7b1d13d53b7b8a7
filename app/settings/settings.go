package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"datasift/app/timestamps"
)

// FileName is the settings file looked up next to the executable when no
// path is given
const FileName = "datasift.yml"

// Load returns the defaults overlaid with the values present in the file at
// path. An empty path means FileName next to the executable, and a missing
// default file is not an error. The result is validated.
func Load(path string) (Settings, error) {
	settings := defaultSettings
	explicit := path != ""
	if !explicit {
		p, err := settingsFilePath()
		if err != nil {
			return settings, nil
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	// Unmarshal into a generic map to detect key presence
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := overlay(&settings, m); err != nil {
		return settings, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return settings, nil
}

func overlay(settings *Settings, m map[string]any) error {
	var errs []error
	wrongType := func(key string, v any) {
		errs = append(errs, fmt.Errorf("%s: unexpected value %v", key, v))
	}

	if v, ok := m["cache_capacity"]; ok {
		if vi, oki := v.(int); oki {
			settings.CacheCapacity = vi
		} else {
			wrongType("cache_capacity", v)
		}
	}
	if v, ok := m["correlation_threshold"]; ok {
		switch vf := v.(type) {
		case float64:
			settings.CorrelationThreshold = vf
		case int:
			settings.CorrelationThreshold = float64(vf)
		default:
			wrongType("correlation_threshold", v)
		}
	}
	if v, ok := m["chunk_size"]; ok {
		if vi, oki := v.(int); oki {
			settings.ChunkSize = vi
		} else {
			wrongType("chunk_size", v)
		}
	}
	if v, ok := m["load_timeout"]; ok {
		switch vt := v.(type) {
		case string:
			d, err := time.ParseDuration(strings.TrimSpace(vt))
			if err != nil {
				errs = append(errs, fmt.Errorf("load_timeout: %w", err))
			}
			settings.LoadTimeout = d
		case int:
			// bare numbers are seconds
			settings.LoadTimeout = time.Duration(vt) * time.Second
		default:
			wrongType("load_timeout", v)
		}
	}
	if v, ok := m["batch_policy"]; ok {
		if vs, oks := v.(string); oks {
			settings.BatchPolicy = strings.ToLower(strings.TrimSpace(vs))
		} else {
			wrongType("batch_policy", v)
		}
	}
	if v, ok := m["name_collisions"]; ok {
		if vs, oks := v.(string); oks {
			settings.NameCollisions = strings.ToLower(strings.TrimSpace(vs))
		} else {
			wrongType("name_collisions", v)
		}
	}
	if v, ok := m["na_values"]; ok {
		if list, okl := v.([]any); okl {
			settings.NAValues = make([]string, 0, len(list))
			for _, item := range list {
				settings.NAValues = append(settings.NAValues, fmt.Sprint(item))
			}
		} else {
			wrongType("na_values", v)
		}
	}
	if v, ok := m["ingest_timezone"]; ok {
		if vs, oks := v.(string); oks {
			settings.IngestTimezone = strings.TrimSpace(vs)
		} else {
			wrongType("ingest_timezone", v)
		}
	}
	if v, ok := m["json_path"]; ok {
		if vs, oks := v.(string); oks {
			settings.JSONPath = strings.TrimSpace(vs)
		} else {
			wrongType("json_path", v)
		}
	}
	if v, ok := m["no_header_row"]; ok {
		if vb, okb := v.(bool); okb {
			settings.NoHeaderRow = vb
		} else {
			wrongType("no_header_row", v)
		}
	}
	if v, ok := m["log_level"]; ok {
		if vs, oks := v.(string); oks {
			settings.LogLevel = strings.ToLower(strings.TrimSpace(vs))
		} else {
			wrongType("log_level", v)
		}
	}
	if v, ok := m["log_format"]; ok {
		if vs, oks := v.(string); oks {
			settings.LogFormat = strings.ToLower(strings.TrimSpace(vs))
		} else {
			wrongType("log_format", v)
		}
	}
	return errors.Join(errs...)
}

// Validate reports every out-of-range value
func (s Settings) Validate() error {
	var errs []error
	if s.CacheCapacity < 1 {
		errs = append(errs, fmt.Errorf("cache_capacity must be at least 1, got %d", s.CacheCapacity))
	}
	if !(s.CorrelationThreshold > 0 && s.CorrelationThreshold <= 1) {
		errs = append(errs, fmt.Errorf("correlation_threshold must be in (0, 1], got %v", s.CorrelationThreshold))
	}
	if s.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk_size must be at least 1, got %d", s.ChunkSize))
	}
	if s.LoadTimeout < 0 {
		errs = append(errs, fmt.Errorf("load_timeout must not be negative, got %s", s.LoadTimeout))
	}
	switch s.BatchPolicy {
	case "abort", "collect":
	default:
		errs = append(errs, fmt.Errorf("batch_policy must be abort or collect, got %q", s.BatchPolicy))
	}
	switch s.NameCollisions {
	case "rename", "reject":
	default:
		errs = append(errs, fmt.Errorf("name_collisions must be rename or reject, got %q", s.NameCollisions))
	}
	if _, err := timestamps.LocationForTZ(s.IngestTimezone); err != nil {
		errs = append(errs, fmt.Errorf("ingest_timezone: %w", err))
	}
	if s.JSONPath != "" {
		if _, err := jp.ParseString(s.JSONPath); err != nil {
			errs = append(errs, fmt.Errorf("json_path %q: %w", s.JSONPath, err))
		}
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s.LogLevel))
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", s.LogFormat))
	}
	return errors.Join(errs...)
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, FileName), nil
}
