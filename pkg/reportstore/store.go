// Package reportstore persists validation results in a SQL database.
// SQLite and PostgreSQL are supported through database/sql.
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// ErrNotFound is returned when a run id is not stored
var ErrNotFound = errors.New("validation run not found")

// Store persists validation results
type Store interface {
	Save(ctx context.Context, result *validator.Result) error
	Get(ctx context.Context, runID string) (*validator.Result, error)
	List(ctx context.Context, filter ListFilter) ([]RunSummary, error)
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// ListFilter narrows List results
type ListFilter struct {
	// FeedRoot matches runs of one feed when set
	FeedRoot string
	// Digest matches runs of identical feed content when set
	Digest string
	// Limit caps the number of runs; zero means DefaultListLimit
	Limit int
}

// DefaultListLimit is used when ListFilter.Limit is zero
const DefaultListLimit = 20

// RunSummary is a stored run without its diagnostics
type RunSummary struct {
	RunID     string        `json:"run_id"`
	FeedRoot  string        `json:"feed_root"`
	Digest    string        `json:"digest,omitempty"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}
