package config

import (
	"path/filepath"
	"strings"

	"github.com/marmos91/dittosync/pkg/timefmt"
)

// defaultDataDir is the root of the default on-disk locations.
const defaultDataDir = "/tmp/dittosync"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Every type-specific section gets defaults, so a generated file shows
//     the options of every backend
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySourceDefaults(&cfg.Source)
	applyListFileDefaults(cfg)
	applyTargetDefaults(&cfg.Target)
	applyEngineDefaults(cfg)
	applyMetricsDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applySourceDefaults sets source defaults.
func applySourceDefaults(cfg *SourceConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(defaultDataDir, "source")
	}

	if cfg.CAS == nil {
		cfg.CAS = make(map[string]any)
	}
	if _, ok := cfg.CAS["db_path"]; !ok {
		cfg.CAS["db_path"] = filepath.Join(defaultDataDir, "cas")
	}
}

// applyListFileDefaults points content store sources at a default list file.
// An archive source without a list file enumerates its own clips.
func applyListFileDefaults(cfg *Config) {
	if cfg.ListFile == "" && cfg.Source.Type != "cas" {
		cfg.ListFile = filepath.Join(defaultDataDir, "list.csv")
	}
}

// applyTargetDefaults sets target defaults.
func applyTargetDefaults(cfg *TargetConfig) {
	if cfg.Type == "" {
		cfg.Type = "catalog"
	}

	if cfg.Catalog == nil {
		cfg.Catalog = make(map[string]any)
	}
	if _, ok := cfg.Catalog["path"]; !ok {
		cfg.Catalog["path"] = filepath.Join(defaultDataDir, "manifest.xdr")
	}

	if cfg.Content.Type == "" {
		cfg.Content.Type = "filesystem"
	}
	if cfg.Content.Filesystem == nil {
		cfg.Content.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Content.Filesystem["path"]; !ok {
		cfg.Content.Filesystem["path"] = filepath.Join(defaultDataDir, "target")
	}
}

// applyEngineDefaults sets worker pool defaults.
func applyEngineDefaults(cfg *Config) {
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.FormatCacheSize == 0 {
		cfg.Engine.FormatCacheSize = timefmt.DefaultCacheSize
	}
	// FailFast defaults to false
	// RateLimit defaults to 0 (unlimited)
	// Extractor.FileMetadataRequired defaults to false
}

// applyMetricsDefaults sets metrics defaults. Metrics stay disabled unless
// enabled explicitly.
func applyMetricsDefaults(cfg *Config) {
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
