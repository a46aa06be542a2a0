package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// KeyPrefix namespaces result keys in Redis
const KeyPrefix = "fares-validator:result:"

const redisCacheType = "redis"

// RedisOptions configures the Redis connection
type RedisOptions struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.Password != "" {
		redisOpts.Password = opts.Password
	}
	if opts.DB > 0 {
		redisOpts.DB = opts.DB
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	redisOpts.DialTimeout = 5 * time.Second
	redisOpts.ReadTimeout = 3 * time.Second
	redisOpts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisCache stores results as JSON in Redis
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *logrus.Logger
}

// NewRedisCache wraps client. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, metrics *observability.Metrics, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func resultKey(digest string) string {
	return KeyPrefix + digest
}

// Get returns the cached result for digest. Undecodable entries are
// deleted and reported as misses.
func (c *RedisCache) Get(ctx context.Context, digest string) (*validator.Result, error) {
	if digest == "" {
		return nil, ErrInvalidDigest
	}

	key := resultKey(digest)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(false)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result validator.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("dropping corrupt cache entry")
		c.client.Del(ctx, key)
		c.record(false)
		return nil, ErrCacheMiss
	}

	c.record(true)
	return &result, nil
}

// Set stores result under digest
func (c *RedisCache) Set(ctx context.Context, digest string, result *validator.Result) error {
	if digest == "" {
		return ErrInvalidDigest
	}
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(ctx, resultKey(digest), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes digest from the cache
func (c *RedisCache) Delete(ctx context.Context, digest string) error {
	if err := c.client.Del(ctx, resultKey(digest)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(redisCacheType, hit)
	}
}
