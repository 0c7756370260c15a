package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// Database configuration (PostgreSQL-compatible analytics backend)
	Database DatabaseConfig `yaml:"database"`

	// Query limit configuration for validation and execution
	Limits QueryLimitsConfig `yaml:"limits"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host             string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port             int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User             string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password         string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database         string `yaml:"database" env:"PGDATABASE" env-default:"analytics"`
	SSLMode          string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections   int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"5"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" env:"PGCONNECT_TIMEOUT_MS" env-default:"2000"`
}

// QueryLimitsConfig bounds what validated queries may return and how long
// they may run.
type QueryLimitsConfig struct {
	// MaxRows caps both explicit LIMIT clauses and injected ones.
	MaxRows int `yaml:"max_rows" env:"QUERY_MAX_ROWS" env-default:"5000"`
	// QueryTimeoutMs is the wall-clock budget for a single execution.
	QueryTimeoutMs int `yaml:"query_timeout_ms" env:"QUERY_TIMEOUT_MS" env-default:"5000"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config file exists, configuration comes from the
// environment alone.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Limits.MaxRows <= 0 {
		return fmt.Errorf("limits.max_rows must be positive, got %d", c.Limits.MaxRows)
	}
	if c.Limits.QueryTimeoutMs <= 0 {
		return fmt.Errorf("limits.query_timeout_ms must be positive, got %d", c.Limits.QueryTimeoutMs)
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("database.max_connections must be positive, got %d", c.Database.MaxConnections)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
