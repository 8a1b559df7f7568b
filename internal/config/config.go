package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"activity-log-api/internal/generation"
	"activity-log-api/internal/repositories"
)

// Error conventions for the dispatcher
const (
	// ConventionLegacy keeps malformed JSON at 500 and provider failures at 200
	ConventionLegacy = "legacy"
	// ConventionStrict reports every failure with a non-2xx status
	ConventionStrict = "strict"
)

// Config holds all configuration for the application
type Config struct {
	Environment      string
	Port             string
	LogLevel         string
	ErrorConvention  string
	MaxBodyBytes     int64
	UpdatableColumns []string
	Store            StoreConfig
	Generation       GenerationConfig
}

// StoreConfig holds data store configuration
type StoreConfig struct {
	Driver      string
	SupabaseURL string
	SupabaseKey string
	DatabaseURL string
	SQLitePath  string
	AutoMigrate bool
	Timeout     time.Duration
}

// GenerationConfig holds text generation provider configuration
type GenerationConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ERROR_CONVENTION", ConventionLegacy)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("STORE_DRIVER", repositories.DriverSupabase)
	v.SetDefault("SQLITE_PATH", "./data/activity.db")
	v.SetDefault("STORE_AUTO_MIGRATE", false)
	v.SetDefault("STORE_TIMEOUT", "8s")
	v.SetDefault("GEMINI_MODEL", generation.DefaultModel)
	v.SetDefault("GEMINI_BASE_URL", generation.DefaultBaseURL)
	v.SetDefault("GEMINI_TIMEOUT", generation.DefaultTimeout.String())

	config := &Config{
		Environment:      v.GetString("ENVIRONMENT"),
		Port:             v.GetString("PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ErrorConvention:  strings.ToLower(v.GetString("ERROR_CONVENTION")),
		MaxBodyBytes:     v.GetInt64("MAX_BODY_BYTES"),
		UpdatableColumns: splitList(v.GetString("UPDATABLE_COLUMNS")),
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("STORE_DRIVER")),
			SupabaseURL: v.GetString("SUPABASE_URL"),
			SupabaseKey: v.GetString("SUPABASE_ANON_KEY"),
			DatabaseURL: v.GetString("DATABASE_URL"),
			SQLitePath:  v.GetString("SQLITE_PATH"),
			AutoMigrate: v.GetBool("STORE_AUTO_MIGRATE"),
			Timeout:     v.GetDuration("STORE_TIMEOUT"),
		},
		Generation: GenerationConfig{
			APIKey:  v.GetString("GEMINI_API_KEY"),
			Model:   v.GetString("GEMINI_MODEL"),
			BaseURL: v.GetString("GEMINI_BASE_URL"),
			Timeout: v.GetDuration("GEMINI_TIMEOUT"),
		},
	}

	return config, nil
}

// Validate checks settings that must be right before any request is served.
// Missing store credentials and API key are reported at first use instead.
func (c *Config) Validate() error {
	switch c.ErrorConvention {
	case ConventionLegacy, ConventionStrict:
	default:
		return fmt.Errorf("ERROR_CONVENTION must be %q or %q, got %q", ConventionLegacy, ConventionStrict, c.ErrorConvention)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be greater than 0")
	}

	if c.Generation.Timeout <= 0 {
		return errors.New("GEMINI_TIMEOUT must be greater than 0")
	}

	if err := c.RepositoryConfig().Validate(); err != nil {
		return fmt.Errorf("invalid store configuration: %w", err)
	}

	return nil
}

// IsStrict reports whether the strict error convention is active
func (c *Config) IsStrict() bool {
	return c.ErrorConvention == ConventionStrict
}

// RepositoryConfig maps the store settings onto the repository layer
func (c *Config) RepositoryConfig() *repositories.Config {
	rc := repositories.DefaultConfig()
	rc.Driver = c.Store.Driver
	rc.Supabase.URL = c.Store.SupabaseURL
	rc.Supabase.Key = c.Store.SupabaseKey
	rc.Database.DSN = c.Store.DatabaseURL
	if c.Store.SQLitePath != "" {
		rc.Database.Path = c.Store.SQLitePath
	}
	rc.Timeout = c.Store.Timeout
	rc.Migration.Enabled = c.Store.AutoMigrate
	return rc
}

// GenerationClientConfig maps the provider settings onto the generation client
func (c *Config) GenerationClientConfig() generation.Config {
	return generation.Config{
		APIKey:  c.Generation.APIKey,
		Model:   c.Generation.Model,
		BaseURL: c.Generation.BaseURL,
		Timeout: c.Generation.Timeout,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
