package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
	"github.com/platinummonkey/fares-validator/pkg/observability"
)

// Result is the outcome of validating one feed
type Result struct {
	RunID       string                   `json:"run_id"`
	FeedRoot    string                   `json:"feed_root"`
	Digest      string                   `json:"digest,omitempty"`
	Networks    []string                 `json:"networks"`
	ServiceIDs  []string                 `json:"service_ids"`
	Areas       []string                 `json:"areas"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
	Summary     diagnostics.Summary      `json:"summary"`
	StartedAt   time.Time                `json:"started_at"`
	Duration    time.Duration            `json:"duration_ns"`
}

// HasErrors reports whether the run produced any error diagnostics
func (r *Result) HasErrors() bool {
	return r.Summary.Errors > 0
}

// Engine runs the enabled validators against feed directories
type Engine struct {
	config      *Config
	logger      *logrus.Logger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
	tracer      trace.Tracer
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics counts runs and diagnostics in Prometheus metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithOTelMetrics records runs through OpenTelemetry instruments
func WithOTelMetrics(metrics *observability.OTelMetrics) Option {
	return func(e *Engine) {
		e.otelMetrics = metrics
	}
}

// WithTracer overrides the tracer used for run spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine creates an engine. A nil config means DefaultConfig.
func NewEngine(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		config: config,
		logger: logrus.New(),
		tracer: otel.Tracer("fares-validator/validator/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

type step struct {
	name    string
	enabled bool
	run     func(ctx context.Context) error
}

// Validate runs every enabled validator against feedRoot with a fresh
// collector. A fatal read error aborts the run and no result is returned.
func (e *Engine) Validate(ctx context.Context, feedRoot string) (*Result, error) {
	info, err := os.Stat(feedRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("feed root %s is not a directory", feedRoot)
	}

	runID := uuid.New().String()
	ctx, span := e.tracer.Start(ctx, "validator.Validate",
		trace.WithAttributes(
			attribute.String("feed.root", feedRoot),
			attribute.String("run.id", runID),
		),
	)
	defer span.End()

	log := e.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"feed":   feedRoot,
	})

	collector := diagnostics.NewCollector()
	var sink diagnostics.Sink = collector
	if e.metrics != nil {
		sink = observability.NewMetricsSink(sink, e.metrics)
		e.metrics.ValidationFeedsInFlight.Inc()
		defer e.metrics.ValidationFeedsInFlight.Dec()
	}
	if ignored := e.config.IgnoredCodes(); len(ignored) > 0 {
		sink = diagnostics.NewFilter(sink, ignored...)
	}

	result := &Result{
		RunID:      runID,
		FeedRoot:   feedRoot,
		Networks:   []string{},
		ServiceIDs: []string{},
		Areas:      []string{},
		StartedAt:  time.Now(),
	}

	log.Debug("validation started")
	err = e.run(ctx, feedRoot, sink, result)

	result.Duration = time.Since(result.StartedAt)
	result.Diagnostics = collector.Diagnostics()
	result.Summary = collector.Summary()

	if e.metrics != nil {
		e.metrics.ObserveRun(result.Duration, err)
	}
	if e.otelMetrics != nil {
		e.otelMetrics.RecordRun(ctx, result.Duration, result.Summary.Errors, result.Summary.Warnings, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		log.WithError(err).Error("validation aborted")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("diagnostics.errors", result.Summary.Errors),
		attribute.Int("diagnostics.warnings", result.Summary.Warnings),
	)
	log.WithFields(logrus.Fields{
		"errors":      result.Summary.Errors,
		"warnings":    result.Summary.Warnings,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("validation complete")

	return result, nil
}

func (e *Engine) run(ctx context.Context, feedRoot string, sink diagnostics.Sink, result *Result) error {
	checks := e.config.Checks
	knownAreas := gtfs.NewIDSet()
	// Without areas.txt there is no known area set to check references
	// against; NO_AREAS already covers it.
	areasDeclared := gtfs.Exists(filepath.Join(feedRoot, gtfs.AreasFile))

	steps := []step{
		{
			name:    "areas",
			enabled: checks.Areas || checks.StopAreas,
			run: func(ctx context.Context) error {
				// Areas are still needed by the stop area check when their own
				// diagnostics are switched off.
				areaSink := sink
				if !checks.Areas {
					areaSink = diagnostics.NewCollector()
				}
				areas, err := Areas(ctx, feedRoot, areaSink)
				if err != nil {
					return err
				}
				knownAreas = areas
				result.Areas = areas.Values()
				return nil
			},
		},
		{
			name:    "stop_areas",
			enabled: checks.StopAreas,
			run: func(ctx context.Context) error {
				stopSink := sink
				if !areasDeclared {
					stopSink = diagnostics.NewFilter(sink, diagnostics.UndefinedArea)
				}
				return CheckStopAreas(ctx, feedRoot, knownAreas, stopSink, e.config.ReadStopTimes)
			},
		},
		{
			name:    "networks",
			enabled: checks.Networks,
			run: func(ctx context.Context) error {
				networks, err := Networks(ctx, feedRoot, sink)
				if err != nil {
					return err
				}
				result.Networks = networks
				return nil
			},
		},
		{
			name:    "service_ids",
			enabled: checks.ServiceIDs,
			run: func(ctx context.Context) error {
				serviceIDs, err := ServiceIDs(ctx, feedRoot, sink)
				if err != nil {
					return err
				}
				result.ServiceIDs = serviceIDs
				return nil
			},
		},
	}

	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.WithField("check", s.name).Debug("running check")
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s check failed: %w", s.name, err)
		}
	}

	return nil
}

// ValidateAll validates independent feeds concurrently, bounded by
// Config.MaxWorkers. Results keep the order of roots. On failure the
// results of completed runs are returned with the first error.
func (e *Engine) ValidateAll(ctx context.Context, roots []string) ([]*Result, error) {
	eg, ctx := errgroup.WithContext(ctx)
	if e.config.MaxWorkers > 0 {
		eg.SetLimit(e.config.MaxWorkers)
	}

	results := make([]*Result, len(roots))
	for i, root := range roots {
		eg.Go(func() error {
			result, err := e.Validate(ctx, root)
			if err != nil {
				return fmt.Errorf("%s: %w", root, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
