package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Unset keys leave the environment-derived value untouched.
type FileConfig struct {
	BaseURI      string            `toml:"base_uri"`
	Timeout      string            `toml:"timeout"`
	Headers      map[string]string `toml:"headers"`
	Features     []string          `toml:"features"`
	Tags         *string           `toml:"tags"`
	Concurrency  int               `toml:"concurrency"`
	Report       string            `toml:"report"`
	MetricsFile  string            `toml:"metrics_file"`
	MockFixtures string            `toml:"mock_fixtures"`
	LogLevel     string            `toml:"log_level"`
	LogFormat    string            `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig copies file values into cfg for every key whose environment
// variable is not set, so the environment always wins over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	setString("APICHECK_BASE_URI", fc.BaseURI, &cfg.BaseURI)
	setString("APICHECK_REPORT", fc.Report, &cfg.Report)
	setString("APICHECK_METRICS_FILE", fc.MetricsFile, &cfg.MetricsFile)
	setString("APICHECK_MOCK_FIXTURES", fc.MockFixtures, &cfg.MockFixtures)
	setString("LOG_LEVEL", fc.LogLevel, &cfg.LogLevel)
	setString("LOG_FORMAT", fc.LogFormat, &cfg.LogFormat)

	// An explicit empty tags string in the file means "run everything".
	if fc.Tags != nil && !envSet("APICHECK_TAGS") {
		cfg.Tags = *fc.Tags
	}

	if fc.Timeout != "" && !envSet("APICHECK_TIMEOUT") {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.Concurrency != 0 && !envSet("APICHECK_CONCURRENCY") {
		cfg.Concurrency = fc.Concurrency
	}
	if len(fc.Features) > 0 && !envSet("APICHECK_FEATURES") {
		cfg.Features = fc.Features
	}
	if len(fc.Headers) > 0 && !envSet("APICHECK_HEADERS") {
		cfg.Headers = fc.Headers
	}
	return nil
}

func setString(envName, value string, dst *string) {
	if value == "" || envSet(envName) {
		return
	}
	*dst = value
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}
