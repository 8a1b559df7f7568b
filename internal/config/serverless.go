package config

import (
	"os"
	"path/filepath"
	"sync"

	"activity-log-api/internal/repositories"
)

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	IsNetlify    bool
	FunctionName string
	Region       string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = detectServerless()
	})
	return serverlessConfig
}

func detectServerless() *ServerlessConfig {
	return &ServerlessConfig{
		IsLambda:     os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",
		IsNetlify:    GetEnvAsBool("NETLIFY", false),
		FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Region:       os.Getenv("AWS_REGION"),
		Stage:        GetEnv("STAGE", "dev"),
	}
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	sc := GetServerlessConfig()
	return sc.IsLambda || sc.IsNetlify
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment.
// Only /tmp is writable inside a function, so a relative SQLite path is moved there.
func AdaptConfigForServerless(config *Config, sc *ServerlessConfig) *Config {
	if !sc.IsLambda && !sc.IsNetlify {
		return config
	}

	if config.Store.Driver == repositories.DriverSQLite && !filepath.IsAbs(config.Store.SQLitePath) {
		config.Store.SQLitePath = filepath.Join(os.TempDir(), filepath.Base(config.Store.SQLitePath))
	}

	return config
}

// GetOptimizedConfig returns validated configuration for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	config = AdaptConfigForServerless(config, GetServerlessConfig())

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
