package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for talibgen.
type Config struct {
	Generate GenerateConfig `yaml:"generate"`
	Input    InputConfig    `yaml:"input"`
	State    StateConfig    `yaml:"state"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GenerateConfig holds code generation settings.
type GenerateConfig struct {
	Prefix       string `yaml:"prefix"`        // identifier prefix of wrapped functions
	Crate        string `yaml:"crate"`         // crate exposing the raw bindings
	Extension    string `yaml:"extension"`     // file extension of generated modules
	ManifestName string `yaml:"manifest_name"` // module index file stem
	Workers      int    `yaml:"workers"`       // concurrent file writes
	Duplicates   string `yaml:"duplicates"`    // "last-wins" or "error"
	SkipInvalid  bool   `yaml:"skip_invalid"`  // skip failing functions instead of aborting
	Prune        bool   `yaml:"prune"`         // remove modules dropped since the last run
	CacheSize    int    `yaml:"cache_size"`    // resolved type cache entries
}

// InputConfig selects declaration files when the input is a directory.
type InputConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// StateConfig holds generation state settings.
type StateConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // relative to the output directory
}

// OutputConfig holds terminal output settings.
type OutputConfig struct {
	Progress bool `yaml:"progress"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

const (
	DuplicatesLastWins = "last-wins"
	DuplicatesError    = "error"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Generate: GenerateConfig{
			Prefix:       "TA_",
			Crate:        "ta_lib_wrapper",
			Extension:    "rs",
			ManifestName: "mod",
			Workers:      4,
			Duplicates:   DuplicatesLastWins,
			SkipInvalid:  false,
			Prune:        true,
			CacheSize:    64,
		},
		Input: InputConfig{
			Includes: []string{"**/*.rs"},
			Excludes: []string{"**/target/**", "**/.git/**"},
		},
		State: StateConfig{
			Enabled: true,
			Dir:     ".talibgen",
		},
		Output: OutputConfig{
			Progress: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for talibgen.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "talibgen.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".talibgen", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate checks settings that would otherwise surface mid-generation.
func (c *Config) Validate() error {
	if c.Generate.Prefix == "" {
		return fmt.Errorf("generate.prefix must not be empty")
	}
	if c.Generate.Crate == "" {
		return fmt.Errorf("generate.crate must not be empty")
	}
	if c.Generate.Extension == "" || c.Generate.ManifestName == "" {
		return fmt.Errorf("generate.extension and generate.manifest_name must not be empty")
	}
	switch c.Generate.Duplicates {
	case DuplicatesLastWins, DuplicatesError:
	default:
		return fmt.Errorf("generate.duplicates must be %q or %q, got %q",
			DuplicatesLastWins, DuplicatesError, c.Generate.Duplicates)
	}
	if c.Generate.Workers < 0 {
		return fmt.Errorf("generate.workers must not be negative")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StateDBPath returns the path to the generation state database.
func (c *Config) StateDBPath(outDir string) string {
	return filepath.Join(outDir, c.State.Dir, "state.db")
}

// EnsureStateDir ensures the state directory exists below outDir.
func (c *Config) EnsureStateDir(outDir string) error {
	return os.MkdirAll(filepath.Join(outDir, c.State.Dir), 0755)
}
