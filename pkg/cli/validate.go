package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/fares-validator/pkg/validator"
)

type validateOptions struct {
	configPath    string
	format        string
	stopTimes     bool
	stopTimesSet  bool
	failOnError   bool
	failOnWarning bool
	workers       int
	storeDriver   string
	storeDSN      string
	verbose       bool
	feeds         []string
}

func newValidateCommand() *Command {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	opts := &validateOptions{}

	fs.StringVar(&opts.configPath, "config", "", "Path to validator config file (fares-validator.yaml)")
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json, github")
	fs.BoolVar(&opts.stopTimes, "stop-times", true, "Check area references in stop_times.txt")
	fs.BoolVar(&opts.failOnError, "fail-on-error", true, "Exit with error code on error diagnostics")
	fs.BoolVar(&opts.failOnWarning, "fail-on-warning", false, "Exit with error code on warning diagnostics")
	fs.IntVar(&opts.workers, "workers", 0, "Feeds validated concurrently (default from config)")
	fs.StringVar(&opts.storeDriver, "store-driver", "", "Record runs in a report store: sqlite3 or postgres")
	fs.StringVar(&opts.storeDSN, "store-dsn", "", "Report store data source name")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose output")

	return &Command{
		Name:        "validate",
		Description: "Validate feed directories, archives or S3 objects",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			opts.feeds = fs.Args()
			opts.stopTimesSet = flagSet(fs, "stop-times")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runValidate(ctx, opts, os.Stdout)
		},
	}
}

// flagSet reports whether name was given on the command line
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runValidate(ctx context.Context, opts *validateOptions, w io.Writer) error {
	if len(opts.feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	logger := newLogger(opts.verbose)

	cfg, err := loadValidatorConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.stopTimesSet {
		cfg.ReadStopTimes = opts.stopTimes
	}
	if opts.workers > 0 {
		cfg.MaxWorkers = opts.workers
	}

	store, err := openStore(ctx, opts.storeDriver, opts.storeDSN, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	resolver, err := newResolver(ctx, opts.feeds, logger)
	if err != nil {
		return err
	}
	feeds, err := resolveAll(ctx, resolver, opts.feeds)
	if err != nil {
		return err
	}
	defer closeFeeds(feeds)

	roots := make([]string, len(feeds))
	for i, feed := range feeds {
		roots[i] = feed.Root
	}

	if opts.verbose {
		logger.Infof("Validating %d feeds...", len(feeds))
	}

	engine := validator.NewEngine(cfg, validator.WithLogger(logger.Logrus()))
	results, err := engine.ValidateAll(ctx, roots)
	if err != nil {
		return err
	}
	for i, result := range results {
		result.FeedRoot = feeds[i].Ref
		result.Digest = feeds[i].Digest
	}

	if err := saveResults(ctx, store, results); err != nil {
		return err
	}

	if err := writeResults(w, opts.format, results); err != nil {
		return err
	}

	return checkFailure(results, opts.failOnError, opts.failOnWarning)
}
