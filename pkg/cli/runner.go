package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/platinummonkey/fares-validator/pkg/config"
	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/feedsource"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/reportstore"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// Output formats
const (
	formatText   = "text"
	formatJSON   = "json"
	formatGitHub = "github"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatGitHub:
		return nil
	default:
		return fmt.Errorf("unknown format %q (must be text, json or github)", format)
	}
}

// newLogger logs to stderr so diagnostics on stdout stay parseable
func newLogger(verbose bool) *observability.Logger {
	level := observability.WarnLevel
	if verbose {
		level = observability.DebugLevel
	}
	return observability.NewLogger(level, os.Stderr)
}

// loadValidatorConfig reads path, or a config file in the working directory
// when path is empty.
func loadValidatorConfig(path string) (*validator.Config, error) {
	if path != "" {
		cfg, err := validator.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := validator.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newResolver creates a feed resolver, enabling S3 from the FV_S3_*
// environment when a reference needs it.
func newResolver(ctx context.Context, refs []string, logger *observability.Logger) (*feedsource.Resolver, error) {
	opts := []feedsource.Option{feedsource.WithLogger(logger.Logrus())}

	needsS3 := false
	for _, ref := range refs {
		if strings.HasPrefix(ref, "s3://") {
			needsS3 = true
			break
		}
	}

	if needsS3 {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		fetcher, err := feedsource.NewS3Fetcher(ctx, s3Config(cfg.S3))
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		opts = append(opts, feedsource.WithS3(fetcher))
	}

	return feedsource.NewResolver(opts...), nil
}

func s3Config(cfg config.S3Config) feedsource.S3Config {
	return feedsource.S3Config{
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UsePathStyle: cfg.UsePathStyle,
	}
}

// resolveAll resolves every reference; on failure the feeds already resolved
// are closed.
func resolveAll(ctx context.Context, resolver *feedsource.Resolver, refs []string) ([]*feedsource.Feed, error) {
	feeds := make([]*feedsource.Feed, 0, len(refs))
	for _, ref := range refs {
		feed, err := resolver.Resolve(ctx, ref)
		if err != nil {
			closeFeeds(feeds)
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func closeFeeds(feeds []*feedsource.Feed) {
	for _, feed := range feeds {
		feed.Close()
	}
}

// validateFeed resolves ref and validates it, reporting the reference and
// content digest on the result.
func validateFeed(ctx context.Context, resolver *feedsource.Resolver, engine *validator.Engine, ref string) (*validator.Result, error) {
	feed, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer feed.Close()

	result, err := engine.Validate(ctx, feed.Root)
	if err != nil {
		return nil, err
	}
	result.FeedRoot = feed.Ref
	result.Digest = feed.Digest
	return result, nil
}

func openStore(ctx context.Context, driver, dsn string, logger *observability.Logger) (reportstore.Store, error) {
	if driver == "" {
		return nil, nil
	}
	store, err := reportstore.Open(ctx, driver, dsn, reportstore.WithLogger(logger.Logrus()))
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	return store, nil
}

func saveResults(ctx context.Context, store reportstore.Store, results []*validator.Result) error {
	if store == nil {
		return nil
	}
	for _, result := range results {
		if err := store.Save(ctx, result); err != nil {
			return fmt.Errorf("failed to save run for %s: %w", result.FeedRoot, err)
		}
	}
	return nil
}

// jsonOutput is the document written by -format json
type jsonOutput struct {
	Results []*validator.Result `json:"results"`
	Summary diagnostics.Summary `json:"summary"`
}

func writeResults(w io.Writer, format string, results []*validator.Result) error {
	switch format {
	case formatJSON:
		return diagnostics.WriteJSON(w, jsonOutput{Results: results, Summary: totalSummary(results)})
	case formatGitHub:
		for _, result := range results {
			if err := diagnostics.WriteGitHub(w, result.FeedRoot, result.Diagnostics); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, result := range results {
			if err := diagnostics.WriteText(w, result.FeedRoot, result.Diagnostics); err != nil {
				return err
			}
		}
		return nil
	}
}

func totalSummary(results []*validator.Result) diagnostics.Summary {
	var all []diagnostics.Diagnostic
	for _, result := range results {
		all = append(all, result.Diagnostics...)
	}
	return diagnostics.Summarize(all)
}

// errDiagnostics marks a run that completed but failed the exit policy
var errDiagnostics = errors.New("validation failed")

func checkFailure(results []*validator.Result, failOnError, failOnWarning bool) error {
	summary := totalSummary(results)
	if failOnError && summary.Errors > 0 {
		return fmt.Errorf("%w with %d errors", errDiagnostics, summary.Errors)
	}
	if failOnWarning && summary.Warnings > 0 {
		return fmt.Errorf("%w with %d warnings", errDiagnostics, summary.Warnings)
	}
	return nil
}
