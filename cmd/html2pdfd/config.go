package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alnah/go-html2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Defaults applied before config file, environment, and flags.
const (
	defaultPort          = 8080
	defaultMaxConcurrent = 2
	defaultMaxBodyBytes  = 2 << 20 // 2 MiB
	defaultTimeoutMS     = 30000
)

// Config holds all configuration for the render server.
type Config struct {
	Port          int    `yaml:"port"`
	MaxConcurrent int    `yaml:"maxConcurrent"`      // admission ceiling for concurrent renders
	MaxBodyBytes  int64  `yaml:"maxBodyBytes"`       // request body size cap
	TimeoutMS     int    `yaml:"timeoutMs"`          // per-render deadline in milliseconds
	APIKey        string `yaml:"apiKey"`             // empty disables the x-rapidapi-key check
	RateLimit     int    `yaml:"rateLimitPerMinute"` // requests per source address per minute, 0 disables
}

// DefaultConfig returns the server defaults: authentication and rate
// limiting disabled.
func DefaultConfig() *Config {
	return &Config{
		Port:          defaultPort,
		MaxConcurrent: defaultMaxConcurrent,
		MaxBodyBytes:  defaultMaxBodyBytes,
		TimeoutMS:     defaultTimeoutMS,
	}
}

// LoadConfig loads configuration from a YAML file, starting from defaults.
// Unknown fields are rejected (no silent typos).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	return cfg, nil
}

// Validate checks that the merged configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: maxConcurrent must be at least 1", ErrInvalidConfig)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("%w: maxBodyBytes must be positive", ErrInvalidConfig)
	}
	if c.TimeoutMS < 1 {
		return fmt.Errorf("%w: timeoutMs must be positive", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rateLimitPerMinute cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// RenderTimeout returns the per-render deadline as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
