package config

import (
	"testing"
	"time"

	"github.com/platinummonkey/fares-validator/pkg/observability"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FV_TEST_VAR", "custom")

	if got := getEnv("FV_TEST_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %v, want custom", got)
	}
	if got := getEnv("FV_TEST_VAR_NOT_SET", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"TRUE", "TRUE", false, true},
		{"one", "1", false, true},
		{"false", "false", true, false},
		{"garbage", "yes", true, false},
		{"unset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FV_TEST_BOOL", tt.envValue)
			if got := getEnvBool("FV_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("FV_TEST_INT", "42")
	if got := getEnvInt("FV_TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}

	t.Setenv("FV_TEST_INT", "forty-two")
	if got := getEnvInt("FV_TEST_INT", 1); got != 1 {
		t.Errorf("getEnvInt() with invalid value = %v, want default 1", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("FV_TEST_DURATION", "90s")
	if got := getEnvDuration("FV_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}

	t.Setenv("FV_TEST_DURATION", "soon")
	if got := getEnvDuration("FV_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with invalid value = %v, want 1s", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("FV_TEST_FLOAT", "0.25")
	if got := getEnvFloat("FV_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("getEnvFloat() = %v, want 0.25", got)
	}

	t.Setenv("FV_TEST_FLOAT", "lots")
	if got := getEnvFloat("FV_TEST_FLOAT", 1); got != 1 {
		t.Errorf("getEnvFloat() with invalid value = %v, want default 1", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.HealthPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Server.Port, cfg.Server.HealthPort)
	}
	if cfg.Store.Driver != "sqlite3" {
		t.Errorf("store driver = %q, want sqlite3", cfg.Store.Driver)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.RateLimit != 30 || cfg.Server.RateLimitBurst != 5 {
		t.Errorf("rate limit = %d/%d, want 30/5", cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
	}
	if cfg.S3.Enabled {
		t.Error("S3 should be disabled by default")
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("log level = %v, want info", cfg.Observability.LogLevel)
	}
	if cfg.Observability.OTelSampleRatio != 1 {
		t.Errorf("sample ratio = %v, want 1", cfg.Observability.OTelSampleRatio)
	}
	if cfg.Observability.OTelServiceName != "fares-validator" {
		t.Errorf("service name = %q", cfg.Observability.OTelServiceName)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FV_PORT", "8000")
	t.Setenv("FV_STORE_DRIVER", "postgres")
	t.Setenv("FV_STORE_DSN", "postgres://db/fares")
	t.Setenv("FV_STORE_RETENTION", "720h")
	t.Setenv("FV_REDIS_URL", "redis://cache:6379")
	t.Setenv("FV_S3_ENABLED", "true")
	t.Setenv("FV_S3_USE_PATH_STYLE", "1")
	t.Setenv("FV_LOG_LEVEL", "debug")
	t.Setenv("FV_VALIDATION_TIMEOUT", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("port = %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.DSN != "postgres://db/fares" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Retention != 720*time.Hour {
		t.Errorf("retention = %v", cfg.Store.Retention)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379" {
		t.Errorf("redis url = %q", cfg.Cache.RedisURL)
	}
	if !cfg.S3.Enabled || !cfg.S3.UsePathStyle {
		t.Errorf("s3 = %+v", cfg.S3)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("log level = %v", cfg.Observability.LogLevel)
	}
	if cfg.Validation.Timeout != 30*time.Second {
		t.Errorf("validation timeout = %v", cfg.Validation.Timeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", HealthPort: "9090"},
			Store:  StoreConfig{Driver: "sqlite3", DSN: ":memory:"},
			Cache:  CacheConfig{Enabled: true, MaxEntries: 10},
			S3:     S3Config{Region: "us-east-1"},
			Observability: ObservabilityConfig{
				OTelEndpoint:    "localhost:4317",
				OTelServiceName: "fares-validator",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing health port", func(c *Config) { c.Server.HealthPort = "" }, true},
		{"same ports", func(c *Config) { c.Server.HealthPort = "8080" }, true},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, true},
		{"rate limit disabled", func(c *Config) { c.Server.RateLimit = 0 }, false},
		{"store disabled", func(c *Config) { c.Store.Driver = "" }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, true},
		{"missing dsn", func(c *Config) { c.Store.DSN = "" }, true},
		{"negative retention", func(c *Config) { c.Store.Retention = -time.Hour }, true},
		{"cache without entries", func(c *Config) { c.Cache.MaxEntries = 0 }, true},
		{"cache disabled without entries", func(c *Config) { c.Cache.Enabled = false; c.Cache.MaxEntries = 0 }, false},
		{"s3 without region", func(c *Config) { c.S3.Enabled = true; c.S3.Region = "" }, true},
		{"otel without endpoint", func(c *Config) { c.Observability.OTelEnabled = true; c.Observability.OTelEndpoint = "" }, true},
		{"otel sample ratio above one", func(c *Config) { c.Observability.OTelEnabled = true; c.Observability.OTelSampleRatio = 1.5 }, true},
		{"otel without service", func(c *Config) { c.Observability.OTelEnabled = true; c.Observability.OTelServiceName = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
