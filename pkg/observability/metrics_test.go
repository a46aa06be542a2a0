package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if metrics.ValidationRunsTotal == nil {
		t.Error("ValidationRunsTotal is nil")
	}
	if metrics.DiagnosticsTotal == nil {
		t.Error("DiagnosticsTotal is nil")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("registering twice on the same registry should panic")
		}
	}()
	NewMetrics(registry)
}

func TestObserveRun(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveRun(10*time.Millisecond, nil)
	metrics.ObserveRun(20*time.Millisecond, nil)
	metrics.ObserveRun(5*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(metrics.ValidationRunsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ValidationRunsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure runs = %v, want 1", got)
	}
}

func TestObserveStoreOperation(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveStoreOperation("save", time.Millisecond, nil)
	metrics.ObserveStoreOperation("save", time.Millisecond, errors.New("db down"))

	if got := testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("save", "success")); got != 1 {
		t.Errorf("save success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("save", "failure")); got != 1 {
		t.Errorf("save failure = %v, want 1", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordCacheLookup("memory", true)
	metrics.RecordCacheLookup("memory", false)
	metrics.RecordCacheLookup("redis", false)

	if got := testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")); got != 1 {
		t.Errorf("memory hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("redis")); got != 1 {
		t.Errorf("redis misses = %v, want 1", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	handler := HTTPMetricsMiddleware(metrics, func(*http.Request) string { return "/v1/validations/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/validations/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/validations/{id}", "404"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.ObserveRun(time.Millisecond, nil)

	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fares_validator_runs_total") {
		t.Error("exposition is missing fares_validator_runs_total")
	}
}

func TestMetricsSink(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	collector := diagnostics.NewCollector()
	sink := NewMetricsSink(collector, metrics)

	sink.AddWarning(diagnostics.Format(diagnostics.NoAreas, "areas.txt", 0, ""))
	sink.AddError(diagnostics.Format(diagnostics.UndefinedArea, "stops.txt", 3, "area_id: z"))
	sink.AddError(diagnostics.Format(diagnostics.UndefinedArea, "stops.txt", 4, "area_id: y"))

	if collector.Len() != 3 {
		t.Errorf("collector has %d diagnostics, want 3", collector.Len())
	}
	if got := testutil.ToFloat64(metrics.DiagnosticsTotal.WithLabelValues(string(diagnostics.UndefinedArea), "error")); got != 2 {
		t.Errorf("UNDEFINED_AREA count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.DiagnosticsTotal.WithLabelValues(string(diagnostics.NoAreas), "warning")); got != 1 {
		t.Errorf("NO_AREAS count = %v, want 1", got)
	}
}
