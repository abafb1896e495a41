// Package config defines process configuration and its loading.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and CEW_* environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// DatabaseURL is the Postgres DSN. Falls back to DATABASE_URL.
	DatabaseURL string `koanf:"database_url"`

	// Connection pool tuning.
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`

	// QueryTimeout bounds every repository call.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// ImportDedupeSize bounds the source keys remembered during one CSV
	// import. Zero means unbounded.
	ImportDedupeSize int `koanf:"import_dedupe_size"`

	// SinceDays is the default lookback window for score and report.
	SinceDays int `koanf:"since_days"`

	// Limit is the default number of scholars printed by score.
	Limit int `koanf:"limit"`

	// ReportPath is where report writes when --out is not given.
	ReportPath string `koanf:"report_path"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Rate limiting for the HTTP query routes. A zero rps turns the
	// limiter off.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetime:  30 * time.Minute,
		QueryTimeout:     30 * time.Second,
		ImportDedupeSize: 50000,
		SinceDays:        30,
		Limit:            10,
		ReportPath:       "report.md",
		Addr:             ":9080",
		RateLimitRPS:     20,
		RateLimitBurst:   40,
	}
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("%w: max_open_conns must be positive", ErrInvalidConfig)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("%w: max_idle_conns must not be negative", ErrInvalidConfig)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("%w: query_timeout must be positive", ErrInvalidConfig)
	}
	if c.ImportDedupeSize < 0 {
		return fmt.Errorf("%w: import_dedupe_size must not be negative", ErrInvalidConfig)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: rate_limit_burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// RequireDatabase reports an error when no DSN is configured. Only commands
// that talk to Postgres call it.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingDatabaseURL)
	}
	return nil
}
