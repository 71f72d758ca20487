package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Shared external calculator
	CalculatorAPIURL  string
	CalculatorTimeout time.Duration

	// Quote cache
	QuoteCacheTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Request normalization
	DestinationPort string
	FallbackCity    string

	// Observability
	OTLPEndpoint string

	// Supabase (companies, vehicles, persisted quotes)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Admin surface
	AdminJWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalculatorAPIURL:  getEnv("CALCULATOR_API_URL", "https://calc.shippingquote.example.com/api/calculate"),
		CalculatorTimeout: getEnvDuration("CALCULATOR_TIMEOUT", 30*time.Second),

		QuoteCacheTTL: getEnvDuration("QUOTE_CACHE_TTL", 24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		DestinationPort: getEnv("DESTINATION_PORT", "POTI"),
		FallbackCity:    getEnv("FALLBACK_CITY", "Los Angeles"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", "shipquote-default-dev-secret-change-me"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
