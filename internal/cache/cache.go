// Package cache stores catalog recommendation results in Redis.
//
// Entries are JSON encoded track lists keyed by emotion, market and limit. A failed read is reported as an
// error and callers treat it as a miss; the cache never decides whether a request succeeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultPrefix = "emotune:"
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// TrackCache is a cache-aside store for recommendation track lists.
type TrackCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// New connects to the Redis server in config.
func New(config shared.CacheConfig, logger *log.Logger) (*TrackCache, error) {
	if config.RedisAddr == "" {
		return nil, fmt.Errorf("%w: cache.redis_addr is empty", shared.ErrMissingConfig)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewWithRedis(rdb, config.Prefix, config.TTL, logger)
}

// NewWithRedis wraps an existing client.
func NewWithRedis(rdb *redis.Client, prefix string, ttl time.Duration, logger *log.Logger) (*TrackCache, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &TrackCache{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: shared.WithLogger(logger, "component", "cache"),
	}, nil
}

// Key builds the cache key of a recommendation request.
func Key(emotion models.Emotion, market string, limit int) string {
	return fmt.Sprintf("recs:%s:%s:%d", emotion, strings.ToUpper(market), limit)
}

// Ping checks the connection.
func (c *TrackCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// Get returns the tracks stored under key. The second result is false on a miss.
func (c *TrackCache) Get(ctx context.Context, key string) ([]models.Track, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.errors.Add(1)
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	var tracks []models.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		c.errors.Add(1)
		c.logger.Warn("dropping corrupt cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.prefix+key).Err()
		return nil, false, nil
	}

	c.hits.Add(1)
	return tracks, true, nil
}

// Set stores tracks under key for the configured TTL.
func (c *TrackCache) Set(ctx context.Context, key string, tracks []models.Track) error {
	data, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.errors.Add(1)
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *TrackCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

// Stats returns the counters since creation.
func (c *TrackCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errors.Load()}
}

// Close closes the underlying client.
func (c *TrackCache) Close() error {
	return c.rdb.Close()
}
