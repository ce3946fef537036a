package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds connection settings for the generation service.
type ProviderConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// Config holds project-level settings loaded from siteforge.yml.
type Config struct {
	Provider      ProviderConfig `yaml:"provider,omitempty"`
	MaxConcurrent int            `yaml:"maxConcurrent,omitempty"`
	RetryBudget   int            `yaml:"retryBudget,omitempty"`
	BackoffMs     int            `yaml:"backoffMs,omitempty"`
	BatchPauseMs  int            `yaml:"batchPauseMs,omitempty"`
	PhaseBudget   int            `yaml:"phaseBudget,omitempty"`
	StorePath     string         `yaml:"storePath,omitempty"`
	Verbose       bool           `yaml:"verbose,omitempty"`
}

// Load attempts to read siteforge.yml or siteforge.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"siteforge.yml", "siteforge.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := FromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return cfg, nil
	}
	return &Config{}, nil
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot honor. Zero values are fine;
// they mean "use the default".
func (c *Config) Validate() error {
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("maxConcurrent must not be negative, got %d", c.MaxConcurrent)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retryBudget must not be negative, got %d", c.RetryBudget)
	}
	if c.BackoffMs < 0 {
		return fmt.Errorf("backoffMs must not be negative, got %d", c.BackoffMs)
	}
	if c.BatchPauseMs < 0 {
		return fmt.Errorf("batchPauseMs must not be negative, got %d", c.BatchPauseMs)
	}
	if c.PhaseBudget < 0 {
		return fmt.Errorf("phaseBudget must not be negative, got %d", c.PhaseBudget)
	}
	if c.Provider.TimeoutSeconds < 0 {
		return fmt.Errorf("provider.timeoutSeconds must not be negative, got %d", c.Provider.TimeoutSeconds)
	}
	return nil
}
