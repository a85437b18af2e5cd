// Package config provides configuration loading and management for fringerestore.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Server parameters for the HTTP API
	Server struct {
		// Addr is the listen address, e.g. ":8080"
		Addr string `yaml:"addr"`

		// MaxUploadBytes caps the size of a multipart request body
		MaxUploadBytes int64 `yaml:"maxUploadBytes"`

		// ReadTimeout and WriteTimeout bound a single request
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	// Processing parameters
	Processing struct {
		// Stride is the sampling step of the sparse result
		Stride int `yaml:"stride"`

		// ExclusionRadius keeps the automatic carrier search away from DC
		ExclusionRadius float64 `yaml:"exclusionRadius"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults writes stage images for every restoration
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where stage images are written
		IntermediaryDir string `yaml:"intermediaryDir"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a logrus level name: debug, info, warn, error
		Level string `yaml:"level"`

		// JSON switches to the JSON formatter
		JSON bool `yaml:"json"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Addr = ":8080"
	cfg.Server.MaxUploadBytes = 32 << 20
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 2 * time.Minute

	cfg.Processing.Stride = 5
	cfg.Processing.ExclusionRadius = 5

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"

	cfg.Logging.Level = "info"
	cfg.Logging.JSON = false

	return cfg
}

// Validate checks values that would make the pipeline misbehave
func (c *Config) Validate() error {
	if c.Processing.Stride < 1 {
		return fmt.Errorf("processing.stride must be at least 1, got %d", c.Processing.Stride)
	}
	if c.Processing.ExclusionRadius <= 0 {
		return fmt.Errorf("processing.exclusionRadius must be positive, got %g", c.Processing.ExclusionRadius)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.maxUploadBytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Output.SaveIntermediaryResults && c.Output.IntermediaryDir == "" {
		return fmt.Errorf("output.intermediaryDir is required when saving intermediary results")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
