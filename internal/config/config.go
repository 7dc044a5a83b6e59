// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingSecret indicates the token signing secret is not configured.
// This is fatal at startup; the server must not serve requests without it.
var ErrMissingSecret = errors.New("config: GATHERLY_AUTH_SECRET is not set")

// Config holds all runtime settings for the API server.
type Config struct {
	Addr        string        `env:"GATHERLY_ADDR" envDefault:":8080"`
	AuthSecret  string        `env:"GATHERLY_AUTH_SECRET"`
	TokenTTL    time.Duration `env:"GATHERLY_TOKEN_TTL" envDefault:"15m"`
	PostgresDSN string        `env:"GATHERLY_PG_DSN"`
	RateBurst   int           `env:"GATHERLY_RATE_BURST" envDefault:"20"`
	RatePerSec  int           `env:"GATHERLY_RATE_PER_SEC" envDefault:"10"`
}

// Load parses the environment and validates required settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.AuthSecret == "" {
		return Config{}, ErrMissingSecret
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("config: token TTL must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}
