package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Identity provider configuration
	Auth AuthConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Background job configuration
	Jobs JobsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	IssuerURL       string
	ClientID        string
	ClientSecret    string
	RegistrationURL string
	RevocationURL   string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// JobsConfig holds background job settings
type JobsConfig struct {
	// LapseSweepSchedule is a cron expression for the subscription lapse
	// sweep. Empty disables the sweep.
	LapseSweepSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
		Jobs:          loadJobsConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("WORKSPACE_HOST", "0.0.0.0"),
		Port:            getEnv("WORKSPACE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("WORKSPACE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WORKSPACE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("WORKSPACE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("WORKSPACE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("WORKSPACE_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if pgURL := getEnv("WORKSPACE_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("WORKSPACE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("WORKSPACE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("WORKSPACE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}

	// Redis config (optional; empty addr disables the shared cache)
	cfg.RedisAddr = getEnv("WORKSPACE_REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("WORKSPACE_REDIS_PASSWORD", "")
	if redisDB := getEnvInt("WORKSPACE_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if ttl := getEnvDuration("WORKSPACE_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

// loadAuthConfig loads identity provider configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		IssuerURL:       getEnv("WORKSPACE_AUTH_ISSUER_URL", ""),
		ClientID:        getEnv("WORKSPACE_AUTH_CLIENT_ID", ""),
		ClientSecret:    getEnv("WORKSPACE_AUTH_CLIENT_SECRET", ""),
		RegistrationURL: getEnv("WORKSPACE_AUTH_REGISTRATION_URL", ""),
		RevocationURL:   getEnv("WORKSPACE_AUTH_REVOCATION_URL", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(strings.ToLower(getEnv("WORKSPACE_LOG_LEVEL", "info"))),
		MetricsEnabled:     getEnvBool("WORKSPACE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("WORKSPACE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("WORKSPACE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("WORKSPACE_OTEL_SERVICE_NAME", "workspace-core"),
		OTelServiceVersion: getEnv("WORKSPACE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("WORKSPACE_OTEL_INSECURE", true),
	}
}

// loadJobsConfig loads background job configuration from environment
func loadJobsConfig() JobsConfig {
	return JobsConfig{
		// Hourly by default; the sweep is cheap and idempotent.
		LapseSweepSchedule: getEnv("WORKSPACE_LAPSE_SWEEP_SCHEDULE", "0 * * * *"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// Validate auth config
	if c.Auth.IssuerURL == "" {
		return fmt.Errorf("auth issuer URL is required")
	}
	if c.Auth.ClientID == "" {
		return fmt.Errorf("auth client ID is required")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
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
