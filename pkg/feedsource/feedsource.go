// Package feedsource turns a feed reference into a local directory the
// validator can read. A reference is a directory, a .zip archive, or an
// s3://bucket/key URL naming an archive or, with a trailing slash, a prefix
// holding the feed files.
package feedsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fares-validator/feedsource")

// ErrUnsupported is returned for references that name neither a directory,
// a zip archive nor a supported S3 location.
var ErrUnsupported = errors.New("unsupported feed reference")

const s3Scheme = "s3://"

// Feed is a resolved feed ready for validation
type Feed struct {
	Ref    string
	Root   string
	Digest string

	tempDir string
}

// Close removes any temporary files created while resolving the feed
func (f *Feed) Close() error {
	if f.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(f.tempDir)
	f.tempDir = ""
	return err
}

// Resolver resolves feed references
type Resolver struct {
	s3      ObjectFetcher
	tempDir string
	logger  *logrus.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithS3 enables s3:// references
func WithS3(fetcher ObjectFetcher) Option {
	return func(r *Resolver) {
		r.s3 = fetcher
	}
}

// WithTempDir sets the parent directory for extracted feeds
func WithTempDir(dir string) Option {
	return func(r *Resolver) {
		r.tempDir = dir
	}
}

// WithLogger sets the resolver logger
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver. Without WithS3, s3:// references fail
// with ErrUnsupported.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: logrus.New()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve makes ref available as a local directory and computes its digest.
// The caller must Close the returned feed.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Feed, error) {
	ctx, span := tracer.Start(ctx, "feedsource.Resolve",
		trace.WithAttributes(attribute.String("feed.ref", ref)),
	)
	defer span.End()

	feed, err := r.resolve(ctx, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve feed")
		return nil, err
	}

	digest, err := Digest(feed.Root)
	if err != nil {
		feed.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to digest feed")
		return nil, fmt.Errorf("failed to digest feed %s: %w", ref, err)
	}
	feed.Digest = digest
	span.SetAttributes(attribute.String("feed.digest", digest))

	r.logger.WithFields(logrus.Fields{
		"ref":    ref,
		"root":   feed.Root,
		"digest": digest,
	}).Debug("feed resolved")

	return feed, nil
}

func (r *Resolver) resolve(ctx context.Context, ref string) (*Feed, error) {
	if strings.HasPrefix(ref, s3Scheme) {
		return r.resolveS3(ctx, ref)
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed %s: %w", ref, err)
	}

	if info.IsDir() {
		return &Feed{Ref: ref, Root: ref}, nil
	}

	if !isZip(ref) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ref)
	}

	tempDir, err := os.MkdirTemp(r.tempDir, "fares-feed-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	root, err := extractZip(ref, tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to extract %s: %w", ref, err)
	}

	return &Feed{Ref: ref, Root: root, tempDir: tempDir}, nil
}

func (r *Resolver) resolveS3(ctx context.Context, ref string) (*Feed, error) {
	if r.s3 == nil {
		return nil, fmt.Errorf("%w: s3 access is not configured: %s", ErrUnsupported, ref)
	}

	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	if key != "" && !strings.HasSuffix(key, "/") && !isZip(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ref)
	}

	tempDir, err := os.MkdirTemp(r.tempDir, "fares-feed-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	feed := &Feed{Ref: ref, Root: tempDir, tempDir: tempDir}

	if isZip(key) {
		archive := filepath.Join(tempDir, "feed.zip")
		if err := downloadObject(ctx, r.s3, bucket, key, archive); err != nil {
			feed.Close()
			return nil, err
		}
		extractDir := filepath.Join(tempDir, "feed")
		root, err := extractZip(archive, extractDir)
		if err != nil {
			feed.Close()
			return nil, fmt.Errorf("failed to extract %s: %w", ref, err)
		}
		feed.Root = root
		return feed, nil
	}

	if err := downloadPrefix(ctx, r.s3, bucket, key, tempDir); err != nil {
		feed.Close()
		return nil, err
	}
	return feed, nil
}

func parseS3Ref(ref string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(ref, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: missing bucket in %s", ErrUnsupported, ref)
	}
	return bucket, key, nil
}

func isZip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}
