package repositories

import (
	"errors"
	"fmt"
	"time"
)

// Supported store drivers
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents repository configuration
type Config struct {
	// Driver selects the store backend (supabase, postgres, sqlite)
	Driver string `json:"driver" yaml:"driver"`

	// Supabase configuration (PostgREST over HTTPS)
	Supabase SupabaseConfig `json:"supabase" yaml:"supabase"`

	// Database configuration for the SQL drivers
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Connection pool configuration
	Pool PoolConfig `json:"pool" yaml:"pool"`

	// Timeout bounds a single store round trip
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Migration configuration
	Migration MigrationConfig `json:"migration" yaml:"migration"`
}

// SupabaseConfig holds the hosted store endpoint and access key
type SupabaseConfig struct {
	URL    string `json:"url" yaml:"url"`
	Key    string `json:"-" yaml:"-"`
	Schema string `json:"schema" yaml:"schema"`
}

// DatabaseConfig represents SQL database configuration
type DatabaseConfig struct {
	// DSN is the Postgres connection string
	DSN string `json:"dsn" yaml:"dsn"`

	// Path is the database file path (for SQLite)
	Path string `json:"path" yaml:"path"`

	// BusyTimeout for SQLite (in milliseconds)
	BusyTimeout int `json:"busy_timeout" yaml:"busy_timeout"`
}

// PoolConfig represents connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// MigrationConfig represents migration configuration
type MigrationConfig struct {
	// Enabled runs pending migrations when the repository is opened
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a default repository configuration
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverSupabase,
		Supabase: SupabaseConfig{
			Schema: "public",
		},
		Database: DatabaseConfig{
			Path:        "data/activity.db",
			BusyTimeout: 5000,
		},
		Pool: PoolConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Timeout: 8 * time.Second,
		Migration: MigrationConfig{
			Enabled: false,
		},
	}
}

// Validate validates the repository configuration. Missing Supabase credentials
// are not an error here: the client fails at first use instead.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSupabase:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database DSN is required for postgres")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite")
		}
	case "":
		return errors.New("store driver is required")
	default:
		return fmt.Errorf("unsupported store driver %q", c.Driver)
	}

	if c.Pool.MaxOpenConns <= 0 {
		return errors.New("max open connections must be greater than 0")
	}

	if c.Pool.MaxIdleConns < 0 {
		return errors.New("max idle connections cannot be negative")
	}

	if c.Pool.MaxIdleConns > c.Pool.MaxOpenConns {
		return errors.New("max idle connections cannot exceed max open connections")
	}

	if c.Timeout <= 0 {
		return errors.New("store timeout must be greater than 0")
	}

	return nil
}

// IsSQLite returns true if the store driver is SQLite
func (c *Config) IsSQLite() bool {
	return c.Driver == DriverSQLite
}

// IsPostgreSQL returns true if the store driver is PostgreSQL
func (c *Config) IsPostgreSQL() bool {
	return c.Driver == DriverPostgres
}
