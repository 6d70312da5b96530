// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Registry settings:
//
//	CAS_REGISTRY_CACHE_SIZE="1024"
//	CAS_REGISTRY_CACHE_TTL="5m"  # 0 disables the lookup cache
//
// Response settings:
//
//	CAS_RELEASED_ATTRIBUTES="email,memberOf"
//	CAS_RESPONSE_INDENT="2"
//
// Observability settings:
//
//	CAS_LOG_LEVEL="info"  # debug, info, warn, error
//	CAS_LOG_FORMAT="json" # json, text
//	CAS_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stderr)
//
// # Related Packages
//
//   - pkg/services: Uses registry cache configuration
//   - pkg/validation: Uses response configuration
package config
