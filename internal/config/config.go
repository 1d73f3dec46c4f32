package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the workspace configuration file.
const FileName = "microerp.yaml"

// Config represents the top-level microerp.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Store    StoreConfig    `yaml:"store"`
	Currency string         `yaml:"currency" env:"MICROERP_CURRENCY"`
	Log      LogConfig      `yaml:"log"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// StoreConfig selects the record store. Name is the persisted store choice;
// the database file is <Dir>/<Name>.db relative to the workspace.
type StoreConfig struct {
	Name string `yaml:"name" env:"MICROERP_STORE_NAME"`
	Dir  string `yaml:"dir" env:"MICROERP_STORE_DIR"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"MICROERP_LOG_LEVEL"`
	Format string `yaml:"format" env:"MICROERP_LOG_FORMAT"` // "console" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a microerp.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from MICROERP_* environment variables.
// Unset variables leave the loaded values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(businessName string) *Config {
	cfg := &Config{
		Business: BusinessConfig{Name: businessName},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "MicroERP",
			AuthorEmail: "microerp@localhost",
		},
	}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if c.Store.Name == "" {
		c.Store.Name = "MicroERP_DB"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "data"
	}
	if c.Currency == "" {
		c.Currency = "EUR"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
