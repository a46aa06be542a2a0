package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS validation_runs (
		run_id TEXT PRIMARY KEY,
		feed_root TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		networks TEXT NOT NULL,
		service_ids TEXT NOT NULL,
		areas TEXT NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		started_at BIGINT NOT NULL,
		duration_ns BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_runs_feed ON validation_runs(feed_root, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_runs_digest ON validation_runs(digest)`,
	`CREATE TABLE IF NOT EXISTS validation_diagnostics (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		code TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		entity TEXT NOT NULL,
		context TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}

// SQLStore implements Store over database/sql
type SQLStore struct {
	db      *sql.DB
	logger  *logrus.Logger
	metrics *observability.Metrics
}

// Option configures a SQLStore
type Option func(*SQLStore)

// WithLogger sets the store logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records operation counts and latencies
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *SQLStore) {
		s.metrics = metrics
	}
}

// Open connects to driver/dsn and ensures the schema exists
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", driver, err)
	}

	store, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and ensures the schema exists
func New(ctx context.Context, db *sql.DB, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	s := &SQLStore{
		db:     db,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure report tables: %w", err)
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DB returns the underlying database, for health checks
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(operation, time.Since(start), err)
	}
}

// Save stores result and its diagnostics in one transaction
func (s *SQLStore) Save(ctx context.Context, result *validator.Result) (err error) {
	start := time.Now()
	defer func() { s.observe("save", start, err) }()

	networks, err := json.Marshal(result.Networks)
	if err != nil {
		return fmt.Errorf("failed to marshal networks: %w", err)
	}
	serviceIDs, err := json.Marshal(result.ServiceIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal service ids: %w", err)
	}
	areas, err := json.Marshal(result.Areas)
	if err != nil {
		return fmt.Errorf("failed to marshal areas: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO validation_runs (
			run_id, feed_root, digest, networks, service_ids, areas,
			errors, warnings, started_at, duration_ns
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.RunID, result.FeedRoot, result.Digest,
		string(networks), string(serviceIDs), string(areas),
		result.Summary.Errors, result.Summary.Warnings,
		result.StartedAt.UnixNano(), int64(result.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	if len(result.Diagnostics) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO validation_diagnostics (
				run_id, seq, code, severity, message, file, line, entity, context
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
		if err != nil {
			return fmt.Errorf("failed to prepare diagnostic insert: %w", err)
		}
		defer stmt.Close()

		for i, d := range result.Diagnostics {
			if _, err := stmt.ExecContext(ctx,
				result.RunID, i, string(d.Code), string(d.Severity), d.Message,
				d.File, d.Line, d.Entity, d.Context,
			); err != nil {
				return fmt.Errorf("failed to insert diagnostic %d: %w", i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"diagnostics": len(result.Diagnostics),
	}).Debug("validation run saved")
	return nil
}

// Get loads a run and its diagnostics in insertion order
func (s *SQLStore) Get(ctx context.Context, runID string) (result *validator.Result, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			s.observe("get", start, nil)
			return
		}
		s.observe("get", start, err)
	}()

	var (
		networks, serviceIDs, areas string
		startedAt, duration         int64
		errorCount, warningCount    int
	)
	result = &validator.Result{}

	err = s.db.QueryRowContext(ctx, `
		SELECT run_id, feed_root, digest, networks, service_ids, areas,
			errors, warnings, started_at, duration_ns
		FROM validation_runs WHERE run_id = $1`, runID,
	).Scan(&result.RunID, &result.FeedRoot, &result.Digest, &networks, &serviceIDs, &areas,
		&errorCount, &warningCount, &startedAt, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	result.StartedAt = time.Unix(0, startedAt).UTC()
	result.Duration = time.Duration(duration)
	if err := unmarshalIDs(networks, &result.Networks); err != nil {
		return nil, err
	}
	if err := unmarshalIDs(serviceIDs, &result.ServiceIDs); err != nil {
		return nil, err
	}
	if err := unmarshalIDs(areas, &result.Areas); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, severity, message, file, line, entity, context
		FROM validation_diagnostics WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnostics of %s: %w", runID, err)
	}
	defer rows.Close()

	result.Diagnostics = make([]diagnostics.Diagnostic, 0)
	for rows.Next() {
		var d diagnostics.Diagnostic
		var code, severity string
		if err := rows.Scan(&code, &severity, &d.Message, &d.File, &d.Line, &d.Entity, &d.Context); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Code = diagnostics.Code(code)
		d.Severity = diagnostics.Severity(severity)
		result.Diagnostics = append(result.Diagnostics, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diagnostics of %s: %w", runID, err)
	}

	result.Summary = diagnostics.Summarize(result.Diagnostics)
	return result, nil
}

// List returns the most recent runs matching filter, newest first
func (s *SQLStore) List(ctx context.Context, filter ListFilter) (runs []RunSummary, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, err) }()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT run_id, feed_root, digest, errors, warnings, started_at, duration_ns
		FROM validation_runs`
	var args []interface{}
	var where []string
	if filter.FeedRoot != "" {
		args = append(args, filter.FeedRoot)
		where = append(where, fmt.Sprintf("feed_root = $%d", len(args)))
	}
	if filter.Digest != "" {
		args = append(args, filter.Digest)
		where = append(where, fmt.Sprintf("digest = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs = make([]RunSummary, 0)
	for rows.Next() {
		var run RunSummary
		var startedAt, duration int64
		if err := rows.Scan(&run.RunID, &run.FeedRoot, &run.Digest, &run.Errors, &run.Warnings, &startedAt, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt).UTC()
		run.Duration = time.Duration(duration)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Cleanup deletes runs started before olderThan and returns how many were removed
func (s *SQLStore) Cleanup(ctx context.Context, olderThan time.Time) (deleted int64, err error) {
	start := time.Now()
	defer func() { s.observe("cleanup", start, err) }()

	cutoff := olderThan.UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM validation_diagnostics
		WHERE run_id IN (SELECT run_id FROM validation_runs WHERE started_at < $1)`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete diagnostics: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM validation_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	deleted, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	if deleted > 0 {
		s.logger.WithField("runs", deleted).Info("old validation runs removed")
	}
	return deleted, nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func unmarshalIDs(raw string, out *[]string) error {
	ids := make([]string, 0)
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return fmt.Errorf("failed to decode stored ids: %w", err)
	}
	*out = ids
	return nil
}
