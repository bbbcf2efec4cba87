package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

var ErrInvalid = errors.New("invalid config")

// Config holds all host configuration.
type Config struct {
	Admin   AdminConfig
	Logging LogConfig
	Session SessionConfig
	Applets AppletConfig
}

// AdminConfig holds admin HTTP server configuration.
type AdminConfig struct {
	Port    string `envconfig:"ADMIN_PORT" default:"8080"`
	Host    string `envconfig:"ADMIN_HOST" default:"127.0.0.1"`
	Enabled bool   `envconfig:"ADMIN_ENABLED" default:"true"`

	// Per-client limit on admin requests, 0 disables it
	RateLimitRPS   int      `envconfig:"ADMIN_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int      `envconfig:"ADMIN_RATE_LIMIT_BURST" default:"0"`
	CORSOrigins    []string `envconfig:"ADMIN_CORS_ORIGINS" default:"*"`
}

// Addr returns the listen address
func (a AdminConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// SessionConfig holds IPC session limits.
type SessionConfig struct {
	RateLimitRPS   float64 `envconfig:"SESSION_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"SESSION_RATE_LIMIT_BURST" default:"0"`
	QueueDepth     int     `envconfig:"SESSION_QUEUE_DEPTH" default:"16"`
}

// AppletConfig holds applet registry configuration.
type AppletConfig struct {
	SeedFile string `envconfig:"APPLET_SEED_FILE" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Admin: AdminConfig{
			Port:        "8080",
			Host:        "127.0.0.1",
			Enabled:     true,
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Session: SessionConfig{
			QueueDepth: 16,
		},
	}
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Admin.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("%w: admin port %q", ErrInvalid, c.Admin.Port)
	}
	if c.Admin.RateLimitRPS < 0 || c.Admin.RateLimitBurst < 0 {
		return fmt.Errorf("%w: negative admin rate limit", ErrInvalid)
	}
	if c.Session.RateLimitRPS < 0 {
		return fmt.Errorf("%w: negative session rate limit", ErrInvalid)
	}
	if c.Session.RateLimitBurst < 0 {
		return fmt.Errorf("%w: negative session burst", ErrInvalid)
	}
	if c.Session.QueueDepth < 1 {
		return fmt.Errorf("%w: session queue depth must be at least 1", ErrInvalid)
	}
	return nil
}
