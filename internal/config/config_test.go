package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "http://localhost:8000/api", cfg.GetAPIBaseURL())
	assert.Equal(t, "development", cfg.GetEnvironment())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, time.Duration(0), cfg.GetRedirectDelay())
	assert.False(t, cfg.IsProduction())
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DEBRIEF_API_URL", "https://debrief.example.com/api")
	t.Setenv("DEBRIEF_ENVIRONMENT", "production")
	t.Setenv("DEBRIEF_REQUEST_TIMEOUT", "10s")
	t.Setenv("DEBRIEF_REDIRECT_DELAY", "2s")

	cfg := NewConfig()

	assert.Equal(t, "https://debrief.example.com/api", cfg.GetAPIBaseURL())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, 2*time.Second, cfg.GetRedirectDelay())
}

func TestNewConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DEBRIEF_REQUEST_TIMEOUT", "not-a-duration")

	cfg := NewConfig()

	assert.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*AppConfig) {}},
		{name: "empty base URL", mutate: func(c *AppConfig) { c.apiBaseURL = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *AppConfig) { c.requestTimeout = 0 }, wantErr: true},
		{name: "unknown environment", mutate: func(c *AppConfig) { c.environment = "qa" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
