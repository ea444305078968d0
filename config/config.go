package config

import (
	"fmt"
	"time"

	"chartengine/internal/indicator"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Tick simulation
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`

	// Infrastructure (empty address/path = disabled)
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	SQLitePath    string        `envconfig:"SQLITE_PATH"`

	// External quote provider
	QuoteEnabled bool          `envconfig:"QUOTE_ENABLED" default:"false"`
	QuoteBaseURL string        `envconfig:"QUOTE_BASE_URL" default:"https://query1.finance.yahoo.com"`
	QuoteProxy   string        `envconfig:"QUOTE_PROXY"`
	QuoteTimeout time.Duration `envconfig:"QUOTE_TIMEOUT" default:"10s"`

	// Live overlay indicators, e.g. "SMA:20,EMA:9,RSI:14"
	Indicators string `envconfig:"INDICATORS" default:"SMA:20,EMA:9,RSI:14"`
}

// Load reads an optional .env file, then maps environment variables onto Config.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("config: TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return &cfg, nil
}

// IndicatorSpecs parses Indicators, skipping invalid entries.
func (c *Config) IndicatorSpecs() []indicator.Spec {
	return indicator.ParseSpecs(c.Indicators)
}
