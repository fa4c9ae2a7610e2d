// Package ratelimit throttles the login and refresh endpoints with fixed
// Redis windows keyed independently by network origin and account/token
// identity.
//
// The limiter fails open: if Redis is unreachable the request is allowed
// and a warning is logged. Locking every user out because the counter
// store is down is a worse failure than briefly losing throttling. Note
// the asymmetry with the cache package, which also swallows store errors
// but recomputes instead; the two policies are intentional and distinct.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Default window limits
const (
	defaultLoginIPLimit       = 50
	defaultLoginIPWindow      = 5 * time.Minute
	defaultLoginAccountLimit  = 10
	defaultLoginAccountWindow = 5 * time.Minute

	defaultRefreshIPLimit     = 60
	defaultRefreshIPWindow    = time.Minute
	defaultRefreshTokenLimit  = 20
	defaultRefreshTokenWindow = time.Minute
)

// Requests without a resolvable client address share this bucket.
// Shared fate for such clients is acceptable degradation, not a security control.
const unknownIP = "unknown"

// Decision is the outcome of one window check
type Decision struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// RetryAfterSeconds reports the retry hint rounded up to whole seconds,
// suitable for a Retry-After header. Zero when allowed.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	secs := int(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// Config holds limiter tuning parameters. Zero values take defaults.
type Config struct {
	// Salt mixed into account identifier hashes so raw emails are never
	// written to the limiter store
	Salt string

	LoginIPLimit       int
	LoginIPWindow      time.Duration
	LoginAccountLimit  int
	LoginAccountWindow time.Duration

	RefreshIPLimit     int
	RefreshIPWindow    time.Duration
	RefreshTokenLimit  int
	RefreshTokenWindow time.Duration
}

func (c *Config) setDefaults() {
	setInt := func(field *int, def int) {
		if *field == 0 {
			*field = def
		}
	}
	setDur := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}

	setInt(&c.LoginIPLimit, defaultLoginIPLimit)
	setDur(&c.LoginIPWindow, defaultLoginIPWindow)
	setInt(&c.LoginAccountLimit, defaultLoginAccountLimit)
	setDur(&c.LoginAccountWindow, defaultLoginAccountWindow)
	setInt(&c.RefreshIPLimit, defaultRefreshIPLimit)
	setDur(&c.RefreshIPWindow, defaultRefreshIPWindow)
	setInt(&c.RefreshTokenLimit, defaultRefreshTokenLimit)
	setDur(&c.RefreshTokenWindow, defaultRefreshTokenWindow)
}

// accountHash hashes a case-normalized account identifier with the salt.
// Normalization stops trivial bypass via case variation of emails.
func accountHash(salt string, account string) string {
	normalized := strings.ToLower(strings.TrimSpace(account))
	sum := sha256.Sum256([]byte(salt + normalized))
	return hex.EncodeToString(sum[:])
}

// tokenHash hashes an opaque token value for use as a window key
func tokenHash(salt string, token string) string {
	sum := sha256.Sum256([]byte(salt + token))
	return hex.EncodeToString(sum[:])
}

func normalizeIP(ip string) string {
	if ip == "" {
		return unknownIP
	}
	return ip
}
