// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// MinJWTSecretLength is the shortest HMAC-SHA256 secret accepted.
const MinJWTSecretLength = 32

// Config contains server configuration parameters.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SeedDemo bool   `env:"SEED_DEMO_DATA" envDefault:"false"`
	Store    Store
	Auth     Auth
	Limits   RateLimit `envPrefix:"AUTH_RATE_"`
}

// Store selects and locates the record store.
type Store struct {
	Driver string `env:"STORE_DRIVER" envDefault:"memory"`
	Path   string `env:"DATABASE_PATH" envDefault:"friendconnect.db"`
}

// Auth contains token and password hashing parameters.
type Auth struct {
	JWTSecret  string `env:"JWT_SECRET,required"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"12"`
}

// RateLimit configures the per-IP token bucket in front of login and
// registration.
type RateLimit struct {
	// Rate is tokens refilled per second.
	Rate  float64 `env:"LIMIT" envDefault:"0.2"`
	Burst float64 `env:"BURST" envDefault:"10"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMemory, DriverSQLite, c.Store.Driver))
	}
	if c.Limits.Rate < 0 || c.Limits.Burst < 1 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must be >= 0 and AUTH_RATE_BURST >= 1"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel converts LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
