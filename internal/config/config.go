// Package config loads the application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// DefaultIntervalSeconds pre-fills the interval on the index page.
	DefaultIntervalSeconds int `env:"DEFAULT_INTERVAL" default:"300"`
	// MinIntervalSeconds is the floor enforced on start commands.
	MinIntervalSeconds int `env:"MIN_INTERVAL" default:"5"`

	QuoteAPIURL  string        `env:"QUOTE_API_URL" default:"https://query1.finance.yahoo.com/v7/finance/quote"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" default:"10s"`

	MaxClients int `env:"MAX_CLIENTS" default:"1000"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MinIntervalSeconds < 1 {
		return fmt.Errorf("MIN_INTERVAL must be at least 1 second, got %d", cfg.MinIntervalSeconds)
	}
	if cfg.DefaultIntervalSeconds < cfg.MinIntervalSeconds {
		return fmt.Errorf("DEFAULT_INTERVAL (%d) must not be below MIN_INTERVAL (%d)", cfg.DefaultIntervalSeconds, cfg.MinIntervalSeconds)
	}
	if cfg.MaxClients < 1 {
		return fmt.Errorf("MAX_CLIENTS must be positive, got %d", cfg.MaxClients)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %v", cfg.FetchTimeout)
	}
	parsed, err := url.Parse(cfg.QuoteAPIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("QUOTE_API_URL must be an absolute URL, got %q", cfg.QuoteAPIURL)
	}
	return nil
}
