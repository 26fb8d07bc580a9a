package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittosync/pkg/engine"
	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/spf13/viper"
)

// Config represents the complete DittoSync configuration.
//
// This structure captures all configurable aspects of an extraction run:
//   - Logging configuration
//   - The list file describing the archived files
//   - Source backend selection and configuration (type-specific)
//   - Extractor policy
//   - Target backend selection and configuration (type-specific)
//   - Worker pool settings
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOSYNC_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each backend defines its own configuration type. The Config struct carries
// type-specific sections (e.g., source.filesystem, source.cas) and only the
// section matching the selected type is decoded by the factories.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ListFile is the CSV list file with one row per source object.
	// May be empty when the source can enumerate its own objects (cas).
	ListFile string `mapstructure:"list_file" yaml:"list_file"`

	// Source specifies where container objects are read from
	Source SourceConfig `mapstructure:"source" yaml:"source"`

	// Extractor controls how list file rows are interpreted
	Extractor extractor.Config `mapstructure:"extractor" yaml:"extractor"`

	// Target specifies where extracted objects are written
	Target TargetConfig `mapstructure:"target" yaml:"target"`

	// Engine contains worker pool settings
	Engine engine.Config `mapstructure:"engine" yaml:"engine"`

	// Metrics controls Prometheus metrics and their HTTP endpoint
	Metrics metrics.ServerConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// StoreConfig selects a content store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// SourceConfig selects the source backend. The content store types read
// containers by identifier; cas reads clips from a BadgerDB archive.
type SourceConfig struct {
	// Type specifies which source implementation to use
	// Valid values: filesystem, memory, s3, cas
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3 cas"`

	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	Memory     map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`
	S3         map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`

	// CAS contains archive configuration
	// Only used when Type = "cas"
	CAS map[string]any `mapstructure:"cas" yaml:"cas,omitempty"`
}

// storeConfig returns the content store selection for the content store
// source types.
func (s *SourceConfig) storeConfig() *StoreConfig {
	return &StoreConfig{
		Type:       s.Type,
		Filesystem: s.Filesystem,
		Memory:     s.Memory,
		S3:         s.S3,
	}
}

// TargetConfig selects the target backend.
type TargetConfig struct {
	// Type specifies which target implementation to use
	// Valid values: catalog, content
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=catalog content"`

	// Catalog contains manifest configuration
	// Only used when Type = "catalog"
	Catalog map[string]any `mapstructure:"catalog" yaml:"catalog,omitempty"`

	// Content selects the store extracted files are written to
	// Only used when Type = "content"
	Content StoreConfig `mapstructure:"content" yaml:"content"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOSYNC_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOSYNC_ prefix and underscores
	// Example: DITTOSYNC_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys bound here can be overridden from the environment even when the
	// config file omits them.
	for _, key := range []string{
		"logging.level",
		"logging.format",
		"logging.output",
		"list_file",
		"source.type",
		"target.type",
		"extractor.file_metadata_required",
		"engine.workers",
		"engine.fail_fast",
		"engine.format_cache_size",
		"engine.rate_limit",
		"engine.rate_burst",
		"engine.verify",
		"metrics.enabled",
		"metrics.port",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittosync/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist falls back to defaults too
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittosync")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittosync")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
