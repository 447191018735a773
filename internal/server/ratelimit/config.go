package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from JOBSCOUT_RATE_LIMIT_*
// environment variables.
func LoadConfig() *Config {
	enabled := envOr("JOBSCOUT_RATE_LIMIT_ENABLED", true, strconv.ParseBool)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	defaultLimit := envOr("JOBSCOUT_RATE_LIMIT_DEFAULT_LIMIT", 600, strconv.Atoi)
	defaultWindow := envOr("JOBSCOUT_RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration)
	cleanupInterval := envOr("JOBSCOUT_RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration)

	whitelist := parseIPList(envOr("JOBSCOUT_RATE_LIMIT_WHITELIST", "", parseString))
	blacklist := parseIPList(envOr("JOBSCOUT_RATE_LIMIT_BLACKLIST", "", parseString))

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       whitelist,
		Blacklist:       blacklist,
		EndpointConfigs: DefaultEndpointConfigs(envOr("JOBSCOUT_RATE_LIMIT_SEARCH_PER_HOUR", 60, strconv.Atoi)),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
// Searches fan out to every board, so they get the strictest limit.
func DefaultEndpointConfigs(searchesPerHour int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/search", Method: "GET", Limit: searchesPerHour, Window: time.Hour, Burst: 5},
		{Path: "/search", Method: "POST", Limit: searchesPerHour, Window: time.Hour, Burst: 5},
		{Path: "/search/stream", Method: "GET", Limit: searchesPerHour, Window: time.Hour, Burst: 5},
		{Path: "/boards", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// envOr parses the environment variable key, falling back to def when it is
// unset or does not parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

