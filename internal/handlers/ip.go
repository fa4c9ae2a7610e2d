package handlers

import (
	"net"
	"net/http"
	"strings"
)

// clientIP resolves the caller's network address for rate limiting.
// Empty string when nothing can be resolved; the limiter maps that to a
// shared "unknown" bucket.
func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For when running behind a proxy
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
