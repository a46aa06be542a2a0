package validator

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

// Config controls which checks run against a feed
type Config struct {
	Version       string       `yaml:"version"`
	Checks        ChecksConfig `yaml:"checks"`
	ReadStopTimes bool         `yaml:"read_stop_times"`
	Ignore        []string     `yaml:"ignore"`
	MaxWorkers    int          `yaml:"max_workers"`
}

// ChecksConfig enables or disables individual validators
type ChecksConfig struct {
	Areas      bool `yaml:"areas"`
	StopAreas  bool `yaml:"stop_areas"`
	Networks   bool `yaml:"networks"`
	ServiceIDs bool `yaml:"service_ids"`
}

// ConfigFileNames are searched, in order, by LoadConfigFromDir
var ConfigFileNames = []string{
	"fares-validator.yaml",
	"fares-validator.yml",
	".fares-validator.yaml",
	".fares-validator.yml",
}

// DefaultConfig returns a configuration with every check enabled
func DefaultConfig() *Config {
	return &Config{
		Version: "v1",
		Checks: ChecksConfig{
			Areas:      true,
			StopAreas:  true,
			Networks:   true,
			ServiceIDs: true,
		},
		ReadStopTimes: true,
		Ignore:        []string{},
		MaxWorkers:    4,
	}
}

// LoadConfig loads configuration from a file. Keys absent from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// LoadConfigFromDir searches for a config file in dir
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	// Return default if no config found
	return DefaultConfig(), nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for unknown versions and codes
func (c *Config) Validate() error {
	if c.Version != "" && c.Version != "v1" {
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must not be negative")
	}
	for _, code := range c.Ignore {
		if _, ok := diagnostics.Lookup(diagnostics.Code(code)); !ok {
			return fmt.Errorf("unknown diagnostic code %q in ignore list", code)
		}
	}
	return nil
}

// IgnoredCodes returns the ignore list as codes
func (c *Config) IgnoredCodes() []diagnostics.Code {
	codes := make([]diagnostics.Code, 0, len(c.Ignore))
	for _, code := range c.Ignore {
		codes = append(codes, diagnostics.Code(code))
	}
	return codes
}
