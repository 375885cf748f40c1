package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generate.Prefix != "TA_" {
		t.Errorf("expected Prefix=TA_, got %s", cfg.Generate.Prefix)
	}
	if cfg.Generate.Extension != "rs" {
		t.Errorf("expected Extension=rs, got %s", cfg.Generate.Extension)
	}
	if cfg.Generate.ManifestName != "mod" {
		t.Errorf("expected ManifestName=mod, got %s", cfg.Generate.ManifestName)
	}
	if cfg.Generate.Duplicates != DuplicatesLastWins {
		t.Errorf("expected Duplicates=%s, got %s", DuplicatesLastWins, cfg.Generate.Duplicates)
	}
	if cfg.Generate.SkipInvalid {
		t.Error("expected whole-run failure policy by default")
	}
	if !cfg.State.Enabled {
		t.Error("expected state to be enabled by default")
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "talibgen.yaml")

	content := `
generate:
  crate: talib_sys
  duplicates: error
  workers: 1
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generate.Crate != "talib_sys" {
		t.Errorf("expected Crate=talib_sys, got %s", cfg.Generate.Crate)
	}
	if cfg.Generate.Duplicates != DuplicatesError {
		t.Errorf("expected Duplicates=error, got %s", cfg.Generate.Duplicates)
	}
	if cfg.Generate.Workers != 1 {
		t.Errorf("expected Workers=1, got %d", cfg.Generate.Workers)
	}
	if cfg.Generate.Prefix != "TA_" {
		t.Errorf("expected untouched Prefix to keep its default, got %s", cfg.Generate.Prefix)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "talibgen.yaml")
	if err := os.WriteFile(configPath, []byte("generate: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".talibgen"), 0755); err != nil {
		t.Fatal(err)
	}

	content := `
state:
  enabled: false
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".talibgen", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.State.Enabled {
		t.Error("expected State.Enabled=false")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talibgen.yaml")
	cfg := DefaultConfig()
	cfg.Generate.Crate = "custom"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Generate.Crate != "custom" {
		t.Errorf("expected Crate=custom, got %s", loaded.Generate.Crate)
	}
}

func TestStateDBPath(t *testing.T) {
	path := DefaultConfig().StateDBPath("/home/user/out")
	expected := filepath.Join("/home/user/out", ".talibgen", "state.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"error duplicates", func(c *Config) { c.Generate.Duplicates = DuplicatesError }, false},
		{"unknown duplicates", func(c *Config) { c.Generate.Duplicates = "first-wins" }, true},
		{"empty prefix", func(c *Config) { c.Generate.Prefix = "" }, true},
		{"empty crate", func(c *Config) { c.Generate.Crate = "" }, true},
		{"empty extension", func(c *Config) { c.Generate.Extension = "" }, true},
		{"negative workers", func(c *Config) { c.Generate.Workers = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
