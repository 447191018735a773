// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL   = "JOBSCOUT_DATABASE_URL"
	EnvUserAgent     = "JOBSCOUT_USER_AGENT"
	EnvUseBrowser    = "JOBSCOUT_USE_BROWSER"
	EnvRatePerSecond = "JOBSCOUT_RATE_PER_SECOND"
	EnvProfilesFile  = "JOBSCOUT_PROFILES_FILE"
)

// Config represents the configuration that can be loaded from a JSON or TOML
// file. All fields are optional; missing values use defaults or CLI flags.
// Durations are strings such as "30s" or "1h30m".
type Config struct {
	// Search defaults
	Boards   []string `json:"boards,omitempty" toml:"boards,omitempty" validate:"dive,required"`
	Limit    int      `json:"limit,omitempty" toml:"limit,omitempty" validate:"gte=0,lte=1000"`
	MaxPages int      `json:"max_pages,omitempty" toml:"max_pages,omitempty" validate:"gte=0"`

	// Fetching
	UseBrowser    bool              `json:"use_browser,omitempty" toml:"use_browser,omitempty"`
	Timeout       string            `json:"timeout,omitempty" toml:"timeout,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty" toml:"user_agent,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" toml:"headers,omitempty"`
	RatePerSecond float64           `json:"rate_per_second,omitempty" toml:"rate_per_second,omitempty" validate:"gte=0"`
	Burst         int               `json:"burst,omitempty" toml:"burst,omitempty" validate:"gte=0"`
	PageDelay     string            `json:"page_delay,omitempty" toml:"page_delay,omitempty"`

	// Page cache
	DatabaseURL string `json:"database_url,omitempty" toml:"database_url,omitempty"`
	CacheTTL    string `json:"cache_ttl,omitempty" toml:"cache_ttl,omitempty"`

	// Extra board profiles (JSON or YAML)
	ProfilesFile string `json:"profiles_file,omitempty" toml:"profiles_file,omitempty"`

	Verbose bool `json:"verbose,omitempty" toml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Limit:         50,
		MaxPages:      100,
		Timeout:       "30s",
		RatePerSecond: 1,
		Burst:         2,
		CacheTTL:      "6h",
	}
}

// LoadConfig loads configuration from a JSON file, or a TOML file when the
// path ends in ".toml". Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
		return &cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"timeout", c.Timeout},
		{"page_delay", c.PageDelay},
		{"cache_ttl", c.CacheTTL},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %w", d.name, err)
		}
		if v < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", d.name)
		}
	}

	if c.ProfilesFile != "" {
		if _, err := os.Stat(c.ProfilesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profiles file not found: %s", c.ProfilesFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Timeout == "" {
		result.Timeout = defaults.Timeout
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.PageDelay == "" {
		result.PageDelay = defaults.PageDelay
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.CacheTTL == "" {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.ProfilesFile == "" {
		result.ProfilesFile = defaults.ProfilesFile
	}

	// Numeric fields: use default if zero
	if result.Limit == 0 {
		result.Limit = defaults.Limit
	}
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.RatePerSecond == 0 {
		result.RatePerSecond = defaults.RatePerSecond
	}
	if result.Burst == 0 {
		result.Burst = defaults.Burst
	}

	if len(result.Boards) == 0 {
		result.Boards = append([]string(nil), defaults.Boards...)
	}

	// Headers from the file win over default headers of the same name
	if len(defaults.Headers) > 0 {
		merged := make(map[string]string, len(defaults.Headers)+len(result.Headers))
		for k, v := range defaults.Headers {
			merged[k] = v
		}
		for k, v := range result.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from JOBSCOUT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(EnvProfilesFile); v != "" {
		c.ProfilesFile = v
	}
	if v := os.Getenv(EnvUseBrowser); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUseBrowser, err)
		}
		c.UseBrowser = b
	}
	if v := os.Getenv(EnvRatePerSecond); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRatePerSecond, err)
		}
		c.RatePerSecond = r
	}
	return nil
}

// TimeoutDuration returns Timeout parsed, or 0 when unset or invalid.
func (c *Config) TimeoutDuration() time.Duration { return parseDuration(c.Timeout) }

// PageDelayDuration returns PageDelay parsed, or 0 when unset or invalid.
func (c *Config) PageDelayDuration() time.Duration { return parseDuration(c.PageDelay) }

// CacheTTLDuration returns CacheTTL parsed, or 0 when unset or invalid.
func (c *Config) CacheTTLDuration() time.Duration { return parseDuration(c.CacheTTL) }

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
