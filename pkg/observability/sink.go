package observability

import (
	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

// MetricsSink counts diagnostics by code and severity before forwarding them
type MetricsSink struct {
	next    diagnostics.Sink
	metrics *Metrics
}

// NewMetricsSink wraps next
func NewMetricsSink(next diagnostics.Sink, metrics *Metrics) *MetricsSink {
	return &MetricsSink{next: next, metrics: metrics}
}

// AddWarning counts and forwards a warning
func (s *MetricsSink) AddWarning(d diagnostics.Diagnostic) {
	s.metrics.DiagnosticsTotal.WithLabelValues(string(d.Code), string(diagnostics.SeverityWarning)).Inc()
	s.next.AddWarning(d)
}

// AddError counts and forwards an error
func (s *MetricsSink) AddError(d diagnostics.Diagnostic) {
	s.metrics.DiagnosticsTotal.WithLabelValues(string(d.Code), string(diagnostics.SeverityError)).Inc()
	s.next.AddError(d)
}
