// Package config provides process configuration for the DeBrief client.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config defines the configuration surface consumed by the client packages.
type Config interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetEnvironment() string
	GetLogLevel() string
	IsProduction() bool
}

// AppConfig implements Config with values taken from the environment.
type AppConfig struct {
	apiBaseURL     string
	environment    string
	logLevel       string
	requestTimeout time.Duration
	redirectDelay  time.Duration
}

// NewConfig creates a configuration instance with defaults overridden by
// environment variables.
func NewConfig() *AppConfig {
	return &AppConfig{
		apiBaseURL:     getEnvString("DEBRIEF_API_URL", "http://localhost:8000/api"),
		environment:    getEnvString("DEBRIEF_ENVIRONMENT", "development"),
		logLevel:       getEnvString("DEBRIEF_LOG_LEVEL", "info"),
		requestTimeout: getEnvDuration("DEBRIEF_REQUEST_TIMEOUT", "30s"),
		redirectDelay:  getEnvDuration("DEBRIEF_REDIRECT_DELAY", "0s"),
	}
}

// GetAPIBaseURL returns the Domain Backend base URL.
func (c *AppConfig) GetAPIBaseURL() string {
	return c.apiBaseURL
}

// GetRequestTimeout returns the upper bound for a single backend call.
func (c *AppConfig) GetRequestTimeout() time.Duration {
	return c.requestTimeout
}

// GetRedirectDelay returns how long a session-expired notice stays visible
// before navigation to the login screen. Zero navigates immediately, which
// is what a one-shot process wants; embedding contexts can raise it.
func (c *AppConfig) GetRedirectDelay() time.Duration {
	return c.redirectDelay
}

// GetEnvironment returns the application environment.
func (c *AppConfig) GetEnvironment() string {
	return c.environment
}

// GetLogLevel returns the log level.
func (c *AppConfig) GetLogLevel() string {
	return c.logLevel
}

// IsProduction returns true when running in production.
func (c *AppConfig) IsProduction() bool {
	return c.environment == "production"
}

// Validate checks if the configuration is valid.
func (c *AppConfig) Validate() error {
	if c.apiBaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.requestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.environment != "development" && c.environment != "staging" && c.environment != "production" {
		return fmt.Errorf("environment must be one of: development, staging, production")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Second
}
