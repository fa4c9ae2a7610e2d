// Package kv owns the Redis client used for version vectors, cached views
// and rate-limit windows. All of them rely on Redis atomic primitives
// (INCR, HINCRBY, EXPIRE) so the application never has to lock.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Connect creates a Redis client and verifies the connection with a ping
func Connect(ctx context.Context, addr string) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: defaultDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("can't connect to redis at %s. Err: %w", addr, err)
	}

	return client, nil
}
