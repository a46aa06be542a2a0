// Package reportcache caches validation results by feed digest. Validation
// is deterministic for identical feed content, so a cached result can stand
// in for a new run.
package reportcache

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// ErrCacheMiss is returned when no result is cached for a digest
var ErrCacheMiss = errors.New("cache miss")

// ErrInvalidDigest is returned for an empty digest
var ErrInvalidDigest = errors.New("invalid feed digest")

// Cache stores validation results keyed by feed digest
type Cache interface {
	Get(ctx context.Context, digest string) (*validator.Result, error)
	Set(ctx context.Context, digest string, result *validator.Result) error
	Delete(ctx context.Context, digest string) error
	Close() error
}

// Config holds cache settings
type Config struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultConfig returns the default cache settings
func DefaultConfig() Config {
	return Config{
		MaxEntries: 256,
		TTL:        time.Hour,
	}
}
