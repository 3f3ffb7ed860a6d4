// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	WORKSPACE_HOST="0.0.0.0"
//	WORKSPACE_PORT="8080"
//	WORKSPACE_HEALTH_PORT="9090"
//	WORKSPACE_READ_TIMEOUT="15s"
//	WORKSPACE_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	WORKSPACE_POSTGRES_URL="postgres://localhost/workspace"
//	WORKSPACE_POSTGRES_MAX_CONNS="25"
//	WORKSPACE_REDIS_ADDR="localhost:6379"  # empty disables the shared cache
//	WORKSPACE_CACHE_TTL="15m"
//
// Identity provider settings:
//
//	WORKSPACE_AUTH_ISSUER_URL="https://auth.example.com"
//	WORKSPACE_AUTH_CLIENT_ID="workspace"
//	WORKSPACE_AUTH_CLIENT_SECRET="..."
//	WORKSPACE_AUTH_REGISTRATION_URL="https://auth.example.com/signup"
//
// Observability settings:
//
//	WORKSPACE_LOG_LEVEL="info"  # debug, info, warn, error
//	WORKSPACE_METRICS_ENABLED="true"
//	WORKSPACE_OTEL_ENABLED="true"
//	WORKSPACE_OTEL_ENDPOINT="otel-collector:4317"
//
// Background job settings:
//
//	WORKSPACE_LAPSE_SWEEP_SCHEDULE="0 * * * *"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
