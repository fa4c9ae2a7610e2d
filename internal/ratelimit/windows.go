package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/questlog/questlog/internal/apperrors"
	"github.com/questlog/questlog/internal/logger"
)

// Limiter enforces fixed-window request budgets backed by Redis counters
type Limiter struct {
	redis  redis.UniversalClient
	config Config
	prefix string
	logger logger.Logger
}

func New(rdb redis.UniversalClient, cfg Config, namespace string, environment string, l logger.Logger) *Limiter {
	cfg.setDefaults()

	return &Limiter{
		redis:  rdb,
		config: cfg,
		prefix: namespace + ":" + environment + ":rl",
		logger: l,
	}
}

// CheckWindow increments the counter at key and applies the window TTL on
// the first hit only, so the window is fixed, not sliding. Denied checks
// carry the key's remaining TTL as the retry hint.
func (l *Limiter) CheckWindow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
	}

	if count <= int64(limit) {
		return Decision{Allowed: true, Count: count, Remaining: int64(limit) - count}, nil
	}

	retryAfter, err := l.redis.TTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if retryAfter < 0 {
		// Key without expiry (lost between INCR and EXPIRE); full window is
		// the honest hint
		retryAfter = window
	}

	return Decision{Allowed: false, Count: count, RetryAfter: retryAfter}, nil
}

// CheckLogin evaluates the per-IP and per-account login windows. Both are
// consumed on every attempt; the request is denied if either is exceeded,
// reporting the larger retry hint. An empty account identifier consumes
// the IP window only.
func (l *Limiter) CheckLogin(ctx context.Context, ip string, account string) Decision {
	ipDecision := l.checkFailOpen(ctx, l.loginIPKey(ip), l.config.LoginIPLimit, l.config.LoginIPWindow)

	if account == "" {
		return ipDecision
	}

	accountDecision := l.checkFailOpen(ctx, l.loginAccountKey(account), l.config.LoginAccountLimit, l.config.LoginAccountWindow)

	return combine(ipDecision, accountDecision)
}

// CheckRefresh evaluates the per-IP and per-token refresh windows.
// A missing token still consumes the IP window.
func (l *Limiter) CheckRefresh(ctx context.Context, ip string, refreshToken string) Decision {
	ipDecision := l.checkFailOpen(ctx, l.refreshIPKey(ip), l.config.RefreshIPLimit, l.config.RefreshIPWindow)

	if refreshToken == "" {
		return ipDecision
	}

	tokenDecision := l.checkFailOpen(ctx, l.refreshTokenKey(refreshToken), l.config.RefreshTokenLimit, l.config.RefreshTokenWindow)

	return combine(ipDecision, tokenDecision)
}

// ResetLogin clears both login windows. Called after a successful login so
// a proven-legitimate user regains full quota immediately instead of
// waiting out the window.
func (l *Limiter) ResetLogin(ctx context.Context, ip string, account string) {
	keys := []string{l.loginIPKey(ip)}
	if account != "" {
		keys = append(keys, l.loginAccountKey(account))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		l.logger.Warn("rate limiter: login window reset failed", "error", err.Error())
	}
}

// checkFailOpen allows the request when the limiter store is unreachable
func (l *Limiter) checkFailOpen(ctx context.Context, key string, limit int, window time.Duration) Decision {
	decision, err := l.CheckWindow(ctx, key, limit, window)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", "error", err.Error())
		return Decision{Allowed: true, Remaining: int64(limit)}
	}
	return decision
}

// combine merges two window decisions: denied if either is denied, with
// the larger retry hint; otherwise the one closer to its limit wins.
func combine(a, b Decision) Decision {
	switch {
	case !a.Allowed && !b.Allowed:
		if b.RetryAfter > a.RetryAfter {
			return b
		}
		return a
	case !a.Allowed:
		return a
	case !b.Allowed:
		return b
	case b.Remaining < a.Remaining:
		return b
	default:
		return a
	}
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.prefix + ":login:ip:" + normalizeIP(ip)
}

func (l *Limiter) loginAccountKey(account string) string {
	return l.prefix + ":login:acct:" + accountHash(l.config.Salt, account)
}

func (l *Limiter) refreshIPKey(ip string) string {
	return l.prefix + ":refresh:ip:" + normalizeIP(ip)
}

func (l *Limiter) refreshTokenKey(token string) string {
	return l.prefix + ":refresh:tok:" + tokenHash(l.config.Salt, token)
}
