package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Schema != CurrentConfigSchema {
		t.Errorf("Schema = %d, want %d", cfg.Schema, CurrentConfigSchema)
	}
	if cfg.ServiceURL == "" {
		t.Error("ServiceURL should have a default")
	}
	if cfg.RunLogPath == "" {
		t.Error("RunLogPath should have a default")
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"schema":1,"service_url":"https://imports.example.com","project_id":12,"api_token":"tok"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceURL != "https://imports.example.com" {
		t.Errorf("ServiceURL = %q", cfg.ServiceURL)
	}
	if cfg.ProjectID != 12 {
		t.Errorf("ProjectID = %d, want 12", cfg.ProjectID)
	}
	if cfg.RunLogPath == "" {
		t.Error("missing RunLogPath should get a default")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceURL != DefaultConfig().ServiceURL {
		t.Errorf("ServiceURL = %q, want default", cfg.ServiceURL)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}
