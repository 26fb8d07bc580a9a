package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_Success(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"# DittoSync Configuration File",
		"logging:",
		"list_file:",
		"source:",
		"extractor:",
		"target:",
		"engine:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	// Verify the generated file is valid YAML
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Expected 4 workers in generated config, got %d", cfg.Engine.Workers)
	}

	if !ConfigExists() {
		t.Error("Expected ConfigExists to report the generated file")
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("First InitConfigToPath failed: %v", err)
	}

	err := InitConfigToPath(path, false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	if err := InitConfigToPath(path, true); err != nil {
		t.Errorf("Expected force to overwrite, got: %v", err)
	}
}

func TestInitConfig_Loadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}

	defaults := GetDefaultConfig()
	if cfg.ListFile != defaults.ListFile {
		t.Errorf("Expected list file %q, got %q", defaults.ListFile, cfg.ListFile)
	}
	if cfg.Target.Catalog["path"] != defaults.Target.Catalog["path"] {
		t.Errorf("Expected catalog path %v, got %v", defaults.Target.Catalog["path"], cfg.Target.Catalog["path"])
	}
}
