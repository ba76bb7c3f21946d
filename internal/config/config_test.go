package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 300, cfg.DefaultIntervalSeconds)
	assert.Equal(t, 5, cfg.MinIntervalSeconds)
	assert.Equal(t, 1000, cfg.MaxClients)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Contains(t, cfg.QuoteAPIURL, "finance/quote")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_INTERVAL", "60")
	t.Setenv("MIN_INTERVAL", "10")
	t.Setenv("MAX_CLIENTS", "50")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("QUOTE_API_URL", "http://localhost:9999/quote")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 60, cfg.DefaultIntervalSeconds)
	assert.Equal(t, 10, cfg.MinIntervalSeconds)
	assert.Equal(t, 50, cfg.MaxClients)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "http://localhost:9999/quote", cfg.QuoteAPIURL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero min interval", "MIN_INTERVAL", "0"},
		{"default below minimum", "DEFAULT_INTERVAL", "2"},
		{"zero max clients", "MAX_CLIENTS", "0"},
		{"negative fetch timeout", "FETCH_TIMEOUT", "-1s"},
		{"relative quote url", "QUOTE_API_URL", "finance/quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
