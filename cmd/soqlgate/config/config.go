// Package config provides configuration structures for the MCP gateway.
package config

import (
	"fmt"
	"time"

	"github.com/atlasfield/soqlgate/pkg/salesforce"
)

// Config represents the gateway configuration.
type Config struct {
	// Transport selects how MCP clients connect: stdio or http.
	Transport string `yaml:"transport" json:"transport"`

	// Address is the listen address for the http transport.
	Address string `yaml:"address" json:"address"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// MaxRows bounds the records returned by the query and search tools.
	MaxRows int `yaml:"max_rows" json:"max_rows"`

	// ShutdownTimeout bounds graceful shutdown of the http transport.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Salesforce holds the org connection settings.
	Salesforce salesforce.Config `yaml:"salesforce" json:"salesforce"`

	// Metrics configuration.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// DescribeCache configuration.
	DescribeCache CacheConfig `yaml:"describe_cache" json:"describe_cache"`
}

// MetricsConfig represents the Prometheus side listener configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// CacheConfig represents the describe cache configuration.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
}

// Validate validates the configuration and applies defaults.
func (c *Config) Validate() error {
	switch c.Transport {
	case "":
		c.Transport = "stdio"
	case "stdio", "http":
	default:
		return fmt.Errorf("unsupported transport: %s", c.Transport)
	}

	if c.Transport == "http" && c.Address == "" {
		return fmt.Errorf("address is required for the http transport")
	}

	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}

	if c.MaxRows <= 0 {
		c.MaxRows = 2000
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}

	if c.DescribeCache.MaxEntries <= 0 {
		c.DescribeCache.MaxEntries = 200
	}
	if c.DescribeCache.TTL <= 0 {
		c.DescribeCache.TTL = 5 * time.Minute
	}

	// Salesforce settings are optional: without a domain the gateway starts
	// disconnected and every org-backed tool fails with CONNECTION_FAILED.
	if c.Salesforce.Domain != "" {
		if err := c.Salesforce.Validate(); err != nil {
			return fmt.Errorf("invalid salesforce configuration: %w", err)
		}
	}

	return nil
}

// IsConnected reports whether an org connection is configured.
func (c *Config) IsConnected() bool {
	return c.Salesforce.Domain != ""
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Transport:       "stdio",
		Address:         "0.0.0.0:8080",
		LogLevel:        "info",
		MaxRows:         2000,
		ShutdownTimeout: 30 * time.Second,
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":9090",
		},
		DescribeCache: CacheConfig{
			Enabled:    true,
			MaxEntries: 200,
			TTL:        5 * time.Minute,
		},
	}
}
