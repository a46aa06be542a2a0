package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/fares-validator/pkg/feedsource"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/reportstore"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

type scheduleOptions struct {
	feed          string
	cronSpec      string
	cleanupSpec   string
	runOnce       bool
	configPath    string
	format        string
	storeDriver   string
	storeDSN      string
	retention     time.Duration
	failOnError   bool
	failOnWarning bool
	verbose       bool
}

func newScheduleCommand() *Command {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	opts := &scheduleOptions{}

	fs.StringVar(&opts.feed, "feed", "", "Feed reference to validate (directory, .zip or s3:// URL)")
	fs.StringVar(&opts.cronSpec, "cron", "0 * * * *", "Cron schedule for validation runs")
	fs.StringVar(&opts.cleanupSpec, "cleanup-cron", "30 3 * * *", "Cron schedule for removing runs older than -retention")
	fs.BoolVar(&opts.runOnce, "run-once", false, "Validate once and exit")
	fs.StringVar(&opts.configPath, "config", "", "Path to validator config file (fares-validator.yaml)")
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json, github")
	fs.StringVar(&opts.storeDriver, "store-driver", "", "Record runs in a report store: sqlite3 or postgres")
	fs.StringVar(&opts.storeDSN, "store-dsn", "", "Report store data source name")
	fs.DurationVar(&opts.retention, "retention", 0, "Remove stored runs older than this (0 keeps everything)")
	fs.BoolVar(&opts.failOnError, "fail-on-error", true, "With -run-once, exit with error code on error diagnostics")
	fs.BoolVar(&opts.failOnWarning, "fail-on-warning", false, "With -run-once, exit with error code on warning diagnostics")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose output")

	return &Command{
		Name:        "schedule",
		Description: "Validate a feed on a cron schedule",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSchedule(ctx, opts, os.Stdout)
		},
	}
}

// scheduledJob runs one validation of the scheduled feed
type scheduledJob struct {
	ref      string
	format   string
	resolver *feedsource.Resolver
	engine   *validator.Engine
	store    reportstore.Store
	logger   *observability.Logger

	outMu sync.Mutex
	out   io.Writer
}

func (j *scheduledJob) run(ctx context.Context) (*validator.Result, error) {
	result, err := validateFeed(ctx, j.resolver, j.engine, j.ref)
	if err != nil {
		return nil, err
	}

	if err := saveResults(ctx, j.store, []*validator.Result{result}); err != nil {
		return nil, err
	}

	j.outMu.Lock()
	defer j.outMu.Unlock()
	fmt.Fprintf(j.out, "\n[%s] run %s\n", result.StartedAt.Format(time.RFC3339), result.RunID)
	if err := writeResults(j.out, j.format, []*validator.Result{result}); err != nil {
		return nil, err
	}
	return result, nil
}

func (j *scheduledJob) runLogged(ctx context.Context) {
	defer observability.RecoverPanic(j.logger, "scheduled validation")

	result, err := j.run(ctx)
	if err != nil {
		j.logger.WithError(err).Error("Scheduled validation failed")
		return
	}
	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"errors":   result.Summary.Errors,
		"warnings": result.Summary.Warnings,
	}).Info("Scheduled validation completed")
}

func cleanupRuns(ctx context.Context, store reportstore.Store, retention time.Duration, logger *observability.Logger) {
	defer observability.RecoverPanic(logger, "report store cleanup")

	deleted, err := store.Cleanup(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.WithError(err).Error("Report store cleanup failed")
		return
	}
	logger.Infof("Removed %d stored runs older than %s", deleted, retention)
}

func runSchedule(ctx context.Context, opts *scheduleOptions, w io.Writer) error {
	if opts.feed == "" {
		return fmt.Errorf("-feed is required")
	}
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	logger := newLogger(opts.verbose)

	cfg, err := loadValidatorConfig(opts.configPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, opts.storeDriver, opts.storeDSN, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	resolver, err := newResolver(ctx, []string{opts.feed}, logger)
	if err != nil {
		return err
	}

	job := &scheduledJob{
		ref:      opts.feed,
		format:   opts.format,
		resolver: resolver,
		engine:   validator.NewEngine(cfg, validator.WithLogger(logger.Logrus())),
		store:    store,
		logger:   logger.WithField("feed", opts.feed),
		out:      w,
	}

	if opts.runOnce {
		result, err := job.run(ctx)
		if err != nil {
			return err
		}
		return checkFailure([]*validator.Result{result}, opts.failOnError, opts.failOnWarning)
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(logger.Logrus())),
	))

	if _, err := c.AddFunc(opts.cronSpec, func() { job.runLogged(ctx) }); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", opts.cronSpec, err)
	}

	if store != nil && opts.retention > 0 {
		if _, err := c.AddFunc(opts.cleanupSpec, func() { cleanupRuns(ctx, store, opts.retention, logger) }); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", opts.cleanupSpec, err)
		}
	}

	c.Start()
	logger.Infof("Validation schedule for %s: %s", opts.feed, opts.cronSpec)

	<-ctx.Done()
	logger.Info("Shutting down scheduler")

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
