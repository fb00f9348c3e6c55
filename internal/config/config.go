// Package config loads the CLI front-end's configuration from an
// optional YAML file, overridden by environment variables — the same
// two-stage load used by iconidentify-xgrabba's internal/config, one
// of the other retrieved example repos.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the nokhal CLI needs that isn't a
// per-invocation flag.
type Config struct {
	Vault VaultConfig `yaml:"vault"`
	Media MediaConfig `yaml:"media"`
	Log   LogConfig   `yaml:"log"`
}

// VaultConfig holds defaults for opening/creating a vault.
type VaultConfig struct {
	Path      string `yaml:"path" envconfig:"NOKHAL_VAULT_PATH" default:"nokhal.nok"`
	ChunkSize int    `yaml:"chunk_size" envconfig:"NOKHAL_CHUNK_SIZE" default:"10000000"`
}

// MediaConfig holds settings for the optional ffmpeg/ffplay bridge.
type MediaConfig struct {
	LogDir string `yaml:"log_dir" envconfig:"NOKHAL_MEDIA_LOG_DIR" default:"./nokhal-media-logs"`
}

// LogConfig controls the CLI's logrus output level.
type LogConfig struct {
	Level string `yaml:"level" envconfig:"NOKHAL_LOG_LEVEL" default:"info"`
}

// Load reads configPath (if non-empty) as YAML, then applies
// environment variable overrides, then validates the result.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks invariants Load can't express through struct tags
// alone.
func (c *Config) Validate() error {
	if c.Vault.ChunkSize <= 0 {
		return fmt.Errorf("vault.chunk_size must be positive, got %d", c.Vault.ChunkSize)
	}
	if c.Vault.Path == "" {
		return fmt.Errorf("vault.path must not be empty")
	}
	return nil
}
