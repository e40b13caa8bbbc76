// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. Every variable is
read under the HUB_ prefix (HUB_PORT, HUB_DB_ADDR, ...).

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Keys) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Hub server.
type Config struct {

	// Server settings
	Addr string `env:"ADDR" envDefault:"0.0.0.0"`
	Port uint16 `env:"PORT" envDefault:"8080"`

	// Logging
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info"`
	LogVerbose bool   `env:"LOG_VERBOSE" envDefault:"false"`

	// Relational Database (PostgreSQL)
	DBAddr    string `env:"DB_ADDR" envDefault:"127.0.0.1"`
	DBPort    uint16 `env:"DB_PORT" envDefault:"5432"`
	DBUser    string `env:"DB_USER,required"`
	DBPass    string `env:"DB_PASS,required"`
	DBName    string `env:"DB_NAME,required"`
	DBPoolMin int32  `env:"DB_POOL_MIN" envDefault:"2"`
	DBPoolMax int32  `env:"DB_POOL_MAX" envDefault:"16"`
	// DBTimeout bounds pool connection acquisition, in seconds.
	DBTimeout uint `env:"DB_TIMEOUT" envDefault:"5"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), used for volatile password-reset tokens.
	RedisURL string `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`

	// PrivateKey is the Ed25519 seed as 64 hex characters. When empty a
	// fresh keypair is generated at startup (tokens do not survive restarts).
	PrivateKey string `env:"PRIVATE_KEY"`

	// TLS certificate pair. When either is missing the server speaks plain HTTP.
	SSLCert string `env:"SSL_CERT"`
	SSLKey  string `env:"SSL_KEY"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "HUB_"}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.DBPoolMin < 1 || cfg.DBPoolMax < cfg.DBPoolMin {
		return nil, fmt.Errorf("config: invalid pool bounds [%d, %d]", cfg.DBPoolMin, cfg.DBPoolMax)
	}

	return cfg, nil
}

// # Derived Values

// ListenAddr returns the host:port pair the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// DatabaseURL assembles a postgres:// DSN from the discrete DB_* variables.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.DBUser, c.DBPass, c.DBAddr, c.DBPort, c.DBName)
}

// AcquireTimeout returns the pool acquisition timeout as a [time.Duration].
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.DBTimeout) * time.Second
}

// TLSEnabled reports whether a full certificate pair was configured.
// A missing pair downgrades the server to plain HTTP rather than failing.
func (c *Config) TLSEnabled() bool {
	return c.SSLCert != "" && c.SSLKey != ""
}
