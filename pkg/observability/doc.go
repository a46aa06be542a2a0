// Package observability provides structured logging, Prometheus metrics and
// OpenTelemetry tracing for the validator and its HTTP service.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("feed", root).Info("validation started")
//
// Components that take a *logrus.Logger receive logger.Logrus().
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	sink := observability.NewMetricsSink(collector, metrics)
//
// MetricsSink counts every diagnostic by code and severity before
// forwarding it to the wrapped sink.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	router.HandleFunc("/health/ready", checker.Readiness)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "fares-validator",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
