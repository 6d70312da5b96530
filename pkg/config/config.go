package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/casserver/pkg/observability"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/platinummonkey/casserver/pkg/validation"
)

// Config holds all application configuration
type Config struct {
	// Service registry configuration
	Registry RegistryConfig

	// Protocol response configuration
	Response ResponseConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// RegistryConfig holds registry lookup cache settings
type RegistryConfig struct {
	CacheSize int
	CacheTTL  time.Duration // 0 disables the cache
}

// CacheEnabled reports whether registry lookups should be cached
func (c RegistryConfig) CacheEnabled() bool {
	return c.CacheTTL > 0
}

// ResponseConfig holds validation response settings
type ResponseConfig struct {
	// Principal attributes released inside cas:attributes, in order
	ReleasedAttributes []string
	Indent             int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	LogFormat      observability.LogFormat
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Registry:      loadRegistryConfig(),
		Response:      loadResponseConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadRegistryConfig loads registry configuration from environment
func loadRegistryConfig() RegistryConfig {
	return RegistryConfig{
		CacheSize: getEnvInt("CAS_REGISTRY_CACHE_SIZE", services.DefaultCacheSize),
		CacheTTL:  getEnvDuration("CAS_REGISTRY_CACHE_TTL", services.DefaultCacheTTL),
	}
}

// loadResponseConfig loads response configuration from environment
func loadResponseConfig() ResponseConfig {
	return ResponseConfig{
		ReleasedAttributes: getEnvList("CAS_RELEASED_ATTRIBUTES"),
		Indent:             getEnvInt("CAS_RESPONSE_INDENT", validation.DefaultIndent),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("CAS_LOG_LEVEL", "info")),
		LogFormat:      observability.LogFormat(strings.ToLower(getEnv("CAS_LOG_FORMAT", string(observability.FormatJSON)))),
		MetricsEnabled: getEnvBool("CAS_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Registry.CacheTTL < 0 {
		return fmt.Errorf("registry cache TTL must not be negative")
	}
	if c.Registry.CacheEnabled() && c.Registry.CacheSize <= 0 {
		return fmt.Errorf("registry cache size must be positive when the cache is enabled")
	}

	if c.Response.Indent < 1 || c.Response.Indent > 8 {
		return fmt.Errorf("response indent must be between 1 and 8, got %d", c.Response.Indent)
	}

	switch c.Observability.LogFormat {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable with blanks dropped
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
