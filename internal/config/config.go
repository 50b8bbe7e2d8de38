package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the webhook relay.
// Environment variables are parsed from the MEM0_WEBHOOK_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Mem0 upstream
	Mem0APIKey  string `envconfig:"MEM0_API_KEY" default:""`
	Mem0BaseURL string `envconfig:"MEM0_BASE_URL" default:"https://api.mem0.ai"`

	// Relay behaviour
	DefaultUserID string `envconfig:"DEFAULT_USER_ID" default:"quinn_may"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" default:""`

	// Upstream call timeout and health probe cadence, in seconds
	UpstreamTimeoutSeconds int `envconfig:"UPSTREAM_TIMEOUT_SECONDS" default:"15"`
	HealthIntervalSeconds  int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
}

// Validate rejects configurations the relay cannot run with.
func (c *Config) Validate() error {
	if c.Mem0APIKey == "" && c.Environment != EnvTesting {
		return fmt.Errorf("MEM0_WEBHOOK_MEM0_API_KEY is required")
	}
	if c.DefaultUserID == "" {
		return fmt.Errorf("MEM0_WEBHOOK_DEFAULT_USER_ID must not be empty")
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("MEM0_WEBHOOK_UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: MEM0_WEBHOOK_HTTP_PORT, MEM0_WEBHOOK_DEFAULT_USER_ID.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MEM0_WEBHOOK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:            EnvTesting,
		HTTPPort:               8000,
		Mem0BaseURL:            "http://localhost:9999",
		DefaultUserID:          "quinn_may",
		UpstreamTimeoutSeconds: 2,
		HealthIntervalSeconds:  1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UpstreamTimeout returns the per-call upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// HealthInterval returns the health probe cadence.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}
