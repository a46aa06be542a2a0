package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry instruments for validation runs
type OTelMetrics struct {
	runsTotal       metric.Int64Counter
	runDuration     metric.Float64Histogram
	diagnosticCount metric.Int64Counter
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/fares-validator")

	m := &OTelMetrics{}
	var err error

	m.runsTotal, err = meter.Int64Counter(
		"fares_validator.runs",
		metric.WithDescription("Total number of feed validation runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"fares_validator.run.duration",
		metric.WithDescription("Feed validation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	m.diagnosticCount, err = meter.Int64Counter(
		"fares_validator.diagnostics",
		metric.WithDescription("Diagnostics emitted per validation run"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create diagnostics counter: %w", err)
	}

	return m, nil
}

// RecordRun records one validation run with its error and warning counts
func (m *OTelMetrics) RecordRun(ctx context.Context, duration time.Duration, errorCount, warningCount int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
	m.diagnosticCount.Add(ctx, int64(errorCount), metric.WithAttributes(attribute.String("severity", "error")))
	m.diagnosticCount.Add(ctx, int64(warningCount), metric.WithAttributes(attribute.String("severity", "warning")))
}
