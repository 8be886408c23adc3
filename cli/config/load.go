package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = "stevedore.yaml"

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct. Defaults are applied after parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads the config at path if it exists, otherwise returns a
// config with defaults applied. A missing config file is not an error: every
// value has a workable default except the storage bucket, which is validated
// where asset sync actually runs.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return Load(path)
}
