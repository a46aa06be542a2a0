package reportcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

const memoryCacheType = "memory"

// MemoryCache is an in-process LRU cache with per-entry expiry
type MemoryCache struct {
	cache   *lru.LRU[string, *validator.Result]
	metrics *observability.Metrics
}

// NewMemoryCache creates a memory cache. metrics may be nil.
func NewMemoryCache(config Config, metrics *observability.Metrics) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}

	return &MemoryCache{
		cache:   lru.NewLRU[string, *validator.Result](config.MaxEntries, nil, config.TTL),
		metrics: metrics,
	}
}

// Get returns the cached result for digest
func (c *MemoryCache) Get(ctx context.Context, digest string) (*validator.Result, error) {
	if digest == "" {
		return nil, ErrInvalidDigest
	}

	result, ok := c.cache.Get(digest)
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(memoryCacheType, ok)
	}
	if !ok {
		return nil, ErrCacheMiss
	}
	return result, nil
}

// Set caches result under digest
func (c *MemoryCache) Set(ctx context.Context, digest string, result *validator.Result) error {
	if digest == "" {
		return ErrInvalidDigest
	}
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	c.cache.Add(digest, result)
	return nil
}

// Delete removes digest from the cache
func (c *MemoryCache) Delete(ctx context.Context, digest string) error {
	c.cache.Remove(digest)
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}

// Close purges the cache
func (c *MemoryCache) Close() error {
	c.cache.Purge()
	return nil
}
