package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring a YAML file.
type envConfig struct {
	ConfigPath    string // HTML2PDF_CONFIG: config file path
	Port          int    // HTML2PDF_PORT (fallback: PORT): listening port
	MaxConcurrent int    // HTML2PDF_MAX_CONCURRENT: admission ceiling
	MaxBodyBytes  int64  // HTML2PDF_MAX_BODY_BYTES: request body cap
	TimeoutMS     int    // HTML2PDF_TIMEOUT_MS: per-render deadline
	APIKey        string // HTML2PDF_API_KEY: x-rapidapi-key secret
	RateLimit     int    // HTML2PDF_RATE_LIMIT: requests per address per minute
}

// knownEnvVars lists valid HTML2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"HTML2PDF_CONFIG":         true,
	"HTML2PDF_PORT":           true,
	"HTML2PDF_MAX_CONCURRENT": true,
	"HTML2PDF_MAX_BODY_BYTES": true,
	"HTML2PDF_TIMEOUT_MS":     true,
	"HTML2PDF_API_KEY":        true,
	"HTML2PDF_RATE_LIMIT":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Values that fail to parse or are non-positive are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("HTML2PDF_CONFIG"),
		APIKey:     os.Getenv("HTML2PDF_API_KEY"),
	}

	cfg.Port = envInt("HTML2PDF_PORT")
	if cfg.Port == 0 {
		// PaaS convention fallback
		cfg.Port = envInt("PORT")
	}
	cfg.MaxConcurrent = envInt("HTML2PDF_MAX_CONCURRENT")
	cfg.TimeoutMS = envInt("HTML2PDF_TIMEOUT_MS")
	cfg.RateLimit = envInt("HTML2PDF_RATE_LIMIT")

	if raw := os.Getenv("HTML2PDF_MAX_BODY_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}

	return cfg
}

// envInt parses a positive integer environment variable, 0 if absent/invalid.
func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// warnUnknownEnvVars logs warnings for unrecognized HTML2PDF_* variables.
// Helps catch typos like HTML2PDF_TIMEOUT instead of HTML2PDF_TIMEOUT_MS.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "HTML2PDF_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overlays environment values onto cfg.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later in resolveConfig).
func applyEnvConfig(env *envConfig, cfg *Config) {
	if env.Port > 0 {
		cfg.Port = env.Port
	}
	if env.MaxConcurrent > 0 {
		cfg.MaxConcurrent = env.MaxConcurrent
	}
	if env.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = env.MaxBodyBytes
	}
	if env.TimeoutMS > 0 {
		cfg.TimeoutMS = env.TimeoutMS
	}
	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}
	if env.RateLimit > 0 {
		cfg.RateLimit = env.RateLimit
	}
}
