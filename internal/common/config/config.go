package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultBaseURI is the public API the bundled features were written against.
const DefaultBaseURI = "https://reqres.in/api"

// Config holds all application configuration.
type Config struct {
	// Target
	BaseURI string            `env:"APICHECK_BASE_URI" envDefault:"https://reqres.in/api"`
	Timeout time.Duration     `env:"APICHECK_TIMEOUT" envDefault:"10s"`
	Headers map[string]string `env:"APICHECK_HEADERS" envSeparator:"," envKeyValSeparator:":"`

	// Selection
	Features    []string `env:"APICHECK_FEATURES" envSeparator:"," envDefault:"features"`
	Tags        string   `env:"APICHECK_TAGS" envDefault:"@API"`
	Concurrency int      `env:"APICHECK_CONCURRENCY" envDefault:"1"`

	// Output
	Report      string `env:"APICHECK_REPORT"`
	MetricsFile string `env:"APICHECK_METRICS_FILE"`

	// Mocks preloaded into every scenario
	MockFixtures string `env:"APICHECK_MOCK_FIXTURES"`

	// Stub server
	Port int `env:"PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables.
// It first attempts to load from .env file if present, then layers the optional
// TOML file at path underneath any variable that is actually set in the environment.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (won't override existing env vars)
	if err := LoadEnvFileIfExists(".env"); err != nil {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		if err := ApplyFileConfig(cfg, fc); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no safe interpretation when out of range.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}
