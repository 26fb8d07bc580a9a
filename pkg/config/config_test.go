package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

list_file: "/data/list.csv"

source:
  type: "filesystem"
  filesystem:
    path: "/data/clips"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ListFile != "/data/list.csv" {
		t.Errorf("Expected list file '/data/list.csv', got %q", cfg.ListFile)
	}
	if cfg.Source.Filesystem["path"] != "/data/clips" {
		t.Errorf("Expected source path '/data/clips', got %v", cfg.Source.Filesystem["path"])
	}
	if cfg.Target.Type != "catalog" {
		t.Errorf("Expected default target 'catalog', got %q", cfg.Target.Type)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Expected default workers 4, got %d", cfg.Engine.Workers)
	}
	if cfg.Extractor.FileMetadataRequired {
		t.Error("Expected file_metadata_required to default to false")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a non-existent path so the user's own config is never picked up
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Source.Type != "filesystem" {
		t.Errorf("Expected default source type 'filesystem', got %q", cfg.Source.Type)
	}
	if cfg.ListFile == "" {
		t.Error("Expected a default list file for a filesystem source")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "logging: [unclosed")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
engine:
  workers: -1
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for negative workers")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
list_file: "/data/list.csv"
engine:
  workers: 2
`)

	t.Setenv("DITTOSYNC_ENGINE_WORKERS", "8")
	t.Setenv("DITTOSYNC_LOGGING_LEVEL", "debug")
	t.Setenv("DITTOSYNC_EXTRACTOR_FILE_METADATA_REQUIRED", "true")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Engine.Workers != 8 {
		t.Errorf("Expected workers 8 from environment, got %d", cfg.Engine.Workers)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG' from environment, got %q", cfg.Logging.Level)
	}
	if !cfg.Extractor.FileMetadataRequired {
		t.Error("Expected file_metadata_required from environment")
	}
}

func TestLoad_CASWithoutListFile(t *testing.T) {
	configPath := writeConfig(t, `
source:
  type: "cas"
  cas:
    db_path: "/data/archive"
target:
  type: "content"
  content:
    type: "s3"
    s3:
      bucket: "restored"
      region: "eu-west-1"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ListFile != "" {
		t.Errorf("Expected no list file for a cas source, got %q", cfg.ListFile)
	}
	if cfg.Source.CAS["db_path"] != "/data/archive" {
		t.Errorf("Expected cas db_path '/data/archive', got %v", cfg.Source.CAS["db_path"])
	}
	if cfg.Target.Content.S3["bucket"] != "restored" {
		t.Errorf("Expected target bucket 'restored', got %v", cfg.Target.Content.S3["bucket"])
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := GetDefaultConfigPath(); got != "/xdg/dittosync/config.yaml" {
		t.Errorf("Expected '/xdg/dittosync/config.yaml', got %q", got)
	}
	if got := GetConfigDir(); got != "/xdg/dittosync" {
		t.Errorf("Expected '/xdg/dittosync', got %q", got)
	}
}
