package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/fares-validator/pkg/gtfs"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

type watchOptions struct {
	feed         string
	debounce     time.Duration
	configPath   string
	format       string
	stopTimes    bool
	stopTimesSet bool
	verbose      bool
}

func newWatchCommand() *Command {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts := &watchOptions{}

	fs.StringVar(&opts.feed, "feed", ".", "Feed directory to watch")
	fs.DurationVar(&opts.debounce, "debounce", 2*time.Second, "Delay after the last change before re-validating")
	fs.StringVar(&opts.configPath, "config", "", "Path to validator config file (fares-validator.yaml)")
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json, github")
	fs.BoolVar(&opts.stopTimes, "stop-times", true, "Check area references in stop_times.txt")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose output")

	return &Command{
		Name:        "watch",
		Description: "Re-validate a feed directory when its files change",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			opts.stopTimesSet = flagSet(fs, "stop-times")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, opts, os.Stdout)
		},
	}
}

// feedWatcher validates one feed; mu keeps runs for the feed from overlapping
type feedWatcher struct {
	root   string
	format string
	engine *validator.Engine
	logger *observability.Logger
	out    io.Writer

	mu sync.Mutex
}

func (fw *feedWatcher) validate(ctx context.Context) {
	defer observability.RecoverPanic(fw.logger, "watch validation")

	fw.mu.Lock()
	defer fw.mu.Unlock()

	result, err := fw.engine.Validate(ctx, fw.root)
	if err != nil {
		if ctx.Err() == nil {
			fw.logger.WithError(err).Error("Validation failed")
		}
		return
	}

	fmt.Fprintf(fw.out, "\n[%s] validated %s\n", result.StartedAt.Format(time.TimeOnly), fw.root)
	if err := writeResults(fw.out, fw.format, []*validator.Result{result}); err != nil {
		fw.logger.WithError(err).Error("Failed to write results")
	}
}

// isFeedEvent reports whether event writes or creates a file the validators read
func isFeedEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return slices.Contains(gtfs.KnownFiles, filepath.Base(event.Name))
}

func runWatch(ctx context.Context, opts *watchOptions, w io.Writer) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	info, err := os.Stat(opts.feed)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch needs a feed directory: %s", opts.feed)
	}

	logger := newLogger(opts.verbose)

	cfg, err := loadValidatorConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.stopTimesSet {
		cfg.ReadStopTimes = opts.stopTimes
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.feed); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.feed, err)
	}

	fw := &feedWatcher{
		root:   opts.feed,
		format: opts.format,
		engine: validator.NewEngine(cfg, validator.WithLogger(logger.Logrus())),
		logger: logger.WithField("feed", opts.feed),
		out:    w,
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	fw.validate(ctx)
	logger.Infof("Started watching for feed changes in %s", opts.feed)

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isFeedEvent(event) {
				continue
			}
			logger.Debugf("Modified file: %s", event.Name)

			if timer == nil {
				timer = time.AfterFunc(opts.debounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(opts.debounce)
			}

		case <-trigger:
			wg.Add(1)
			go func() {
				defer wg.Done()
				fw.validate(ctx)
			}()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Watcher error")
		}
	}
}
