// Package config loads the service configuration from environment variables
// with defaults for every setting.
//
// Server settings:
//
//	FV_HOST="0.0.0.0"
//	FV_PORT="8080"
//	FV_HEALTH_PORT="9090"
//	FV_READ_TIMEOUT="15s"
//	FV_WRITE_TIMEOUT="60s"
//	FV_RATE_LIMIT="30"         # validations per client per minute, 0 disables
//	FV_RATE_LIMIT_BURST="5"
//
// Report store:
//
//	FV_STORE_DRIVER="postgres"  # sqlite3, postgres, or empty to disable
//	FV_STORE_DSN="postgres://localhost/fares?sslmode=disable"
//	FV_STORE_RETENTION="720h"
//
// Result cache:
//
//	FV_CACHE_ENABLED="true"
//	FV_CACHE_MAX_ENTRIES="256"
//	FV_CACHE_TTL="1h"
//	FV_REDIS_URL="redis://localhost:6379"
//
// S3 feeds:
//
//	FV_S3_ENABLED="true"
//	FV_S3_REGION="us-east-1"
//	FV_S3_ENDPOINT="http://minio:9000"
//	FV_S3_USE_PATH_STYLE="true"
//
// Observability:
//
//	FV_LOG_LEVEL="info"  # debug, info, warn, error
//	FV_METRICS_ENABLED="true"
//	FV_OTEL_ENABLED="true"
//	FV_OTEL_ENDPOINT="otel-collector:4317"
//	FV_OTEL_SAMPLE_RATIO="0.1"
package config
