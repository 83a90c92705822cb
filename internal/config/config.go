// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Path to the YAML protocol descriptor override file, empty for the
	// built-in catalog
	ProtocolsFile string

	// Base URL of the external gas price service, empty to use static
	// fallback prices only
	GasOracleURL string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Tracker settings
	SweepInterval time.Duration
	QueryTimeout  time.Duration
	MaxRetries    int

	// Collaborator request timeout
	RequestTimeout time.Duration

	// Circuit breaker settings
	EnableCircuitBreaker bool
	BreakerFailures      int
	BreakerCooldown      time.Duration

	// Rate limiting for the HTTP surface
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:                 GetEnvOrDefault("PORT", "8080"),
		ProtocolsFile:        GetEnvOrDefault("PROTOCOLS_FILE", ""),
		GasOracleURL:         GetEnvOrDefault("GAS_ORACLE_URL", ""),
		OtelEndpoint:         GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SweepInterval:        GetEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
		QueryTimeout:         GetEnvAsDuration("QUERY_TIMEOUT", 10*time.Second),
		MaxRetries:           GetEnvAsInt("MAX_TRACKING_RETRIES", 5),
		RequestTimeout:       GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		EnableCircuitBreaker: GetEnvAsBool("ENABLE_CIRCUIT_BREAKER", true),
		BreakerFailures:      GetEnvAsInt("BREAKER_FAILURES", 3),
		BreakerCooldown:      GetEnvAsDuration("BREAKER_COOLDOWN", 2*time.Minute),
		RateLimitRPS:         GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst:       GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
