// Package config loads and saves the shared genstudio configuration file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yijiawu/genstudio/internal/points"
)

// Config holds settings shared by the CLI and the server.
type Config struct {
	Listen     string       `yaml:"listen,omitempty"`
	DataDir    string       `yaml:"data_dir,omitempty"`
	DBPath     string       `yaml:"db_path,omitempty"`
	APIKey     string       `yaml:"api_key,omitempty"`
	APIBaseURL string       `yaml:"api_base_url,omitempty"`
	Costs      points.Costs `yaml:"costs,omitempty"`
}

// configPath returns the path to the config file
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".genstudio.yaml"), nil
}

// DefaultDataDir returns the data directory used when none is configured.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".genstudio"
	}
	return filepath.Join(home, ".genstudio")
}

// Load loads the configuration from disk. A missing file yields a zero Config.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save saves the configuration to disk.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ResolvedDataDir returns the configured data dir or the default.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// ResolvedCosts returns the shipped cost table overlaid with any configured
// overrides.
func (c *Config) ResolvedCosts() points.Costs {
	return points.Defaults().Merge(c.Costs)
}
