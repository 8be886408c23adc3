package config

import (
	"fmt"
	"time"
)

// Default values applied by ApplyDefaults when the config file omits them.
const (
	DefaultRegistryHost  = "registry.pithecene.io"
	DefaultRegistryPath  = "/v1/app/publish"
	DefaultRegion        = "us-east-1"
	DefaultService       = "appregistry"
	DefaultDependencyDir = "node_modules"
)

// Config represents a stevedore.yaml configuration file.
// All values are optional and act as defaults for publish flags.
// CLI flags always override config values.
type Config struct {
	Registry      RegistryConfig `yaml:"registry"`
	Storage       StorageConfig  `yaml:"storage"`
	DependencyDir string         `yaml:"dependency_dir"`
	// CredentialHelper names the credential helper binary suffix
	// (e.g. "secretservice", "osxkeychain"). Empty selects by platform.
	CredentialHelper string       `yaml:"credential_helper"`
	Notify           NotifyConfig `yaml:"notify"`
}

// RegistryConfig locates the publish endpoint and its signing scope.
type RegistryConfig struct {
	// Host is the regional registry host (no scheme).
	Host string `yaml:"host"`
	// Path is the publish endpoint path.
	Path string `yaml:"path"`
	// Region is the signing region.
	Region string `yaml:"region"`
	// Service is the signing service name.
	Service string `yaml:"service"`
}

// StorageConfig locates the asset content store.
type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// NotifyConfig holds optional post-publish notification targets.
type NotifyConfig struct {
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`
	Redis   *RedisConfig   `yaml:"redis,omitempty"`
}

// WebhookConfig configures the HTTP POST notifier.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// RedisConfig configures the redis pub/sub notifier.
type RedisConfig struct {
	URL     string   `yaml:"url"`
	Channel string   `yaml:"channel,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
	Retries *int     `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ApplyDefaults fills in zero-valued fields with the documented defaults.
// Storage region falls back to the registry region when unset.
func (c *Config) ApplyDefaults() {
	if c.Registry.Host == "" {
		c.Registry.Host = DefaultRegistryHost
	}
	if c.Registry.Path == "" {
		c.Registry.Path = DefaultRegistryPath
	}
	if c.Registry.Region == "" {
		c.Registry.Region = DefaultRegion
	}
	if c.Registry.Service == "" {
		c.Registry.Service = DefaultService
	}
	if c.DependencyDir == "" {
		c.DependencyDir = DefaultDependencyDir
	}
	if c.Storage.Region == "" {
		c.Storage.Region = c.Registry.Region
	}
}

// Validate checks config consistency for a publish invocation.
// The bucket is only required when asset sync will run.
func (c *Config) Validate() error {
	if c.Registry.Host == "" {
		return fmt.Errorf("registry host is required")
	}
	if c.Notify.Webhook != nil && c.Notify.Webhook.URL == "" {
		return fmt.Errorf("notify.webhook requires a url")
	}
	if c.Notify.Redis != nil && c.Notify.Redis.URL == "" {
		return fmt.Errorf("notify.redis requires a url")
	}
	return nil
}
