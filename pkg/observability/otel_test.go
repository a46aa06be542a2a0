package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitOTelDisabled(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	if err != nil {
		t.Fatalf("InitOTel: %v", err)
	}
	if providers != nil {
		t.Error("expected nil providers when disabled")
	}
	if err := ShutdownOTel(context.Background(), providers, logger); err != nil {
		t.Errorf("ShutdownOTel(nil) = %v", err)
	}
}

func TestWithTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	if WithTraceContext(context.Background(), logger) != logger {
		t.Error("logger without span should be returned unchanged")
	}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	WithTraceContext(ctx, logger).Info("traced")
	entry := decodeLine(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v", entry["trace_id"])
	}
}

func TestOTelMetricsRecordRun(t *testing.T) {
	m, err := NewOTelMetrics()
	if err != nil {
		t.Fatalf("NewOTelMetrics: %v", err)
	}
	// The global meter provider is a no-op here; recording must not panic.
	m.RecordRun(context.Background(), time.Millisecond, 2, 1, nil)
	m.RecordRun(context.Background(), time.Millisecond, 0, 0, errors.New("failed"))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		got := sampler(tt.ratio).Description()
		if !strings.Contains(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want it to contain %q", tt.ratio, got, tt.want)
		}
	}
}

func TestShutdownOTelProviders(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	providers := &OTelProviders{TracerProvider: sdktrace.NewTracerProvider()}
	if err := ShutdownOTel(context.Background(), providers, logger); err != nil {
		t.Fatalf("ShutdownOTel: %v", err)
	}
	if !strings.Contains(buf.String(), "OpenTelemetry shutdown complete") {
		t.Errorf("missing shutdown log: %q", buf.String())
	}
}
