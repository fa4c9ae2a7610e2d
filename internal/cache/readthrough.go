package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/questlog/questlog/internal/logger"
)

const ttlJitter = 0.2 // ±20%, smooths synchronized expiry of entries written together

// Cache serves JSON-encoded derived views through the version vector
type Cache struct {
	redis    redis.UniversalClient
	versions *Versions
	prefix   string
	logger   logger.Logger
}

func New(rdb redis.UniversalClient, versions *Versions, namespace string, environment string, l logger.Logger) *Cache {
	return &Cache{
		redis:    rdb,
		versions: versions,
		prefix:   namespace + ":" + environment,
		logger:   l,
	}
}

// ReadThrough returns the cached value for (userID, domain, scope) under the
// current version of versionField, or computes, stores and returns it.
//
// The cache is strictly optional: any Redis failure falls back to calling
// compute directly and serving its result uncached. A compute error is
// returned as-is and nothing is stored.
func ReadThrough[T any](
	ctx context.Context,
	c *Cache,
	userID uuid.UUID,
	domain string,
	scope string,
	versionField string,
	baseTTL time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	version, err := c.versions.Get(ctx, userID, versionField)
	if err != nil {
		c.logger.Warn("cache bypassed: version read failed", "domain", domain, "error", err.Error())
		return compute(ctx)
	}

	key := c.entryKey(userID, domain, scope, version)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		// Undecodable entry is treated as a miss and overwritten below
		c.logger.Warn("cache entry corrupt, recomputing", "key", key)
	case errors.Is(err, redis.Nil):
		// plain miss
	default:
		c.logger.Warn("cache bypassed: read failed", "key", key, "error", err.Error())
		return compute(ctx)
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	data, err = json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache not written: marshal failed", "key", key, "error", err.Error())
		return value, nil
	}

	if err := c.redis.Set(ctx, key, data, jitterTTL(baseTTL)).Err(); err != nil {
		c.logger.Warn("cache not written: store failed", "key", key, "error", err.Error())
	}

	return value, nil
}

func (c *Cache) entryKey(userID uuid.UUID, domain string, scope string, version int64) string {
	return fmt.Sprintf("%s:cache:%s:%s:%s:v%d", c.prefix, userID, domain, scope, version)
}

// jitterTTL randomizes the TTL by ±ttlJitter
func jitterTTL(base time.Duration) time.Duration {
	factor := 1 - ttlJitter + 2*ttlJitter*rand.Float64()
	return time.Duration(float64(base) * factor)
}
