package reportcache

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// Tiered checks a fast local cache before a shared one and backfills the
// local cache on shared hits.
type Tiered struct {
	l1     Cache
	l2     Cache
	logger *logrus.Logger
}

// NewTiered combines l1 and l2. Shared cache failures are logged and
// treated as misses.
func NewTiered(l1, l2 Cache, logger *logrus.Logger) *Tiered {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tiered{l1: l1, l2: l2, logger: logger}
}

// Get returns a result from l1, then l2
func (t *Tiered) Get(ctx context.Context, digest string) (*validator.Result, error) {
	result, err := t.l1.Get(ctx, digest)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}

	result, err = t.l2.Get(ctx, digest)
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		t.logger.WithError(err).Warn("shared result cache unavailable")
		return nil, ErrCacheMiss
	}

	if err := t.l1.Set(ctx, digest, result); err != nil {
		t.logger.WithError(err).Debug("failed to backfill local result cache")
	}
	return result, nil
}

// Set stores result in both tiers
func (t *Tiered) Set(ctx context.Context, digest string, result *validator.Result) error {
	if err := t.l1.Set(ctx, digest, result); err != nil {
		return err
	}
	return t.l2.Set(ctx, digest, result)
}

// Delete removes digest from both tiers
func (t *Tiered) Delete(ctx context.Context, digest string) error {
	return errors.Join(t.l1.Delete(ctx, digest), t.l2.Delete(ctx, digest))
}

// Close closes both tiers
func (t *Tiered) Close() error {
	return errors.Join(t.l1.Close(), t.l2.Close())
}
