package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestHealthCheckNoDependencies(t *testing.T) {
	checker := NewHealthChecker(nil, nil, "v1.2.3")
	status := checker.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", status.Status)
	}
	if status.Version != "v1.2.3" {
		t.Errorf("version = %s", status.Version)
	}
	if len(status.Dependencies) != 0 {
		t.Errorf("dependencies = %v, want none", status.Dependencies)
	}
}

func TestHealthCheckDatabase(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

		status := NewHealthChecker(db, nil, "").Check(context.Background())
		if status.Status != StatusHealthy {
			t.Errorf("status = %s, want healthy", status.Status)
		}
		if status.Dependencies["report_store"].Status != StatusHealthy {
			t.Errorf("report_store = %+v", status.Dependencies["report_store"])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("ping failure is unhealthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		status := NewHealthChecker(db, nil, "").Check(context.Background())
		if status.Status != StatusUnhealthy {
			t.Errorf("status = %s, want unhealthy", status.Status)
		}
		if status.Dependencies["report_store"].Message != "connection refused" {
			t.Errorf("message = %q", status.Dependencies["report_store"].Message)
		}
	})
}

func TestHealthCheckRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewHealthChecker(nil, client, "")
	if status := checker.Check(context.Background()); status.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", status.Status)
	}

	mr.Close()
	status := checker.Check(context.Background())
	if status.Status != StatusDegraded {
		t.Errorf("status with redis down = %s, want degraded", status.Status)
	}
	if status.Dependencies["result_cache"].Status != StatusUnhealthy {
		t.Errorf("result_cache = %+v", status.Dependencies["result_cache"])
	}
}

func TestHealthHandlers(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthChecker(nil, nil, "").Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	})

	t.Run("readiness unhealthy returns 503", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("down"))

		rec := httptest.NewRecorder()
		NewHealthChecker(db, nil, "").Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
		var body HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != StatusUnhealthy {
			t.Errorf("body status = %s", body.Status)
		}
	})
}
