package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/fares-validator/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Report store configuration
	Store StoreConfig

	// Result cache configuration
	Cache CacheConfig

	// S3 feed source configuration
	S3 S3Config

	// Validation defaults
	Validation ValidationConfig

	// Observability configuration
	Observability ObservabilityConfig
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

	// RateLimit caps validation requests per client per minute; zero disables
	// limiting. Limits are shared through Redis when a Redis URL is set.
	RateLimit      int
	RateLimitBurst int
}

// StoreConfig selects the report store
type StoreConfig struct {
	// Driver is "sqlite3", "postgres" or empty to disable persistence
	Driver string
	DSN    string
	// Retention removes runs older than this; zero keeps everything
	Retention time.Duration
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Enabled    bool
	MaxEntries int
	TTL        time.Duration

	// Redis enables the shared tier when set
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// S3Config enables s3:// feed references
type S3Config struct {
	Enabled      bool
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// ValidationConfig holds defaults for validation runs started by the service
type ValidationConfig struct {
	// ConfigPath is a validator YAML file applied to every feed; empty means
	// defaults
	ConfigPath string
	// Timeout bounds one validation request
	Timeout time.Duration
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
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Cache:         loadCacheConfig(),
		S3:            loadS3Config(),
		Validation:    loadValidationConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("FV_HOST", "0.0.0.0"),
		Port:            getEnv("FV_PORT", "8080"),
		ReadTimeout:     getEnvDuration("FV_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("FV_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration("FV_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("FV_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("FV_HEALTH_PORT", "9090"),
		RateLimit:       getEnvInt("FV_RATE_LIMIT", 30),
		RateLimitBurst:  getEnvInt("FV_RATE_LIMIT_BURST", 5),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:    getEnv("FV_STORE_DRIVER", "sqlite3"),
		DSN:       getEnv("FV_STORE_DSN", "fares-validator.db"),
		Retention: getEnvDuration("FV_STORE_RETENTION", 0),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getEnvBool("FV_CACHE_ENABLED", true),
		MaxEntries:    getEnvInt("FV_CACHE_MAX_ENTRIES", 256),
		TTL:           getEnvDuration("FV_CACHE_TTL", time.Hour),
		RedisURL:      getEnv("FV_REDIS_URL", ""),
		RedisPassword: getEnv("FV_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("FV_REDIS_DB", 0),
		RedisPoolSize: getEnvInt("FV_REDIS_POOL_SIZE", 0),
	}
}

func loadS3Config() S3Config {
	return S3Config{
		Enabled:      getEnvBool("FV_S3_ENABLED", false),
		Region:       getEnv("FV_S3_REGION", "us-east-1"),
		Endpoint:     getEnv("FV_S3_ENDPOINT", ""),
		AccessKey:    getEnv("FV_S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("FV_S3_SECRET_KEY", ""),
		UsePathStyle: getEnvBool("FV_S3_USE_PATH_STYLE", false),
	}
}

func loadValidationConfig() ValidationConfig {
	return ValidationConfig{
		ConfigPath: getEnv("FV_VALIDATOR_CONFIG", ""),
		Timeout:    getEnvDuration("FV_VALIDATION_TIMEOUT", 5*time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("FV_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("FV_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("FV_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("FV_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("FV_OTEL_SERVICE_NAME", "fares-validator"),
		OTelServiceVersion: getEnv("FV_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("FV_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("FV_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}

	switch c.Store.Driver {
	case "":
	case "sqlite3", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store DSN is required for %s store", c.Store.Driver)
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be sqlite3, postgres, or empty)", c.Store.Driver)
	}
	if c.Store.Retention < 0 {
		return fmt.Errorf("store retention must not be negative")
	}

	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive when the cache is enabled")
	}

	if c.S3.Enabled && c.S3.Region == "" {
		return fmt.Errorf("S3 region is required when S3 is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
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

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
