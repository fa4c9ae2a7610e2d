// Package cache implements the version-tagged read-through cache for
// per-user derived views (board, dash, badges).
//
// Invalidation is O(1): every cached value is addressed under the version
// that was current when it was written. Mutations bump the version, which
// makes old entries unreachable; they expire via TTL on their own, nothing
// is enumerated or deleted. Concurrent misses are not coalesced: compute
// functions must be idempotent pure reads.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/questlog/questlog/internal/apperrors"
)

// Version vector field names. Mutating services bump these; reads key
// cache lookups off them.
const (
	FieldBoard  = "board"
	FieldDash   = "dash"
	FieldBadges = "badges"
)

// Versions is the per-user version vector: one Redis hash per user mapping
// a logical field name to a monotonically increasing integer.
type Versions struct {
	redis  redis.UniversalClient
	prefix string
}

func NewVersions(rdb redis.UniversalClient, namespace string, environment string) *Versions {
	return &Versions{
		redis:  rdb,
		prefix: namespace + ":" + environment,
	}
}

// Get returns the current version of the field, 0 if never bumped
func (v *Versions) Get(ctx context.Context, userID uuid.UUID, field string) (int64, error) {
	version, err := v.redis.HGet(ctx, v.key(userID), field).Int64()
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, redis.Nil):
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
}

// Bump atomically increases the field's version by delta using HINCRBY,
// so it stays correct under concurrent callers without locking.
// A failed bump leaves the cache stale until TTL expiry; the mutation that
// triggered it is already committed and is not rolled back.
func (v *Versions) Bump(ctx context.Context, userID uuid.UUID, field string, delta int64) (int64, error) {
	version, err := v.redis.HIncrBy(ctx, v.key(userID), field, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return version, nil
}

func (v *Versions) key(userID uuid.UUID) string {
	return v.prefix + ":ver:" + userID.String()
}
