package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/social"
)

// RateLimiter is the minimal interface required to guard the toggle endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest consults limiter for the caller of r within scope. Authenticated
// callers get their own bucket; anonymous callers share one per client address.
func allowRequest(limiter RateLimiter, r *http.Request, scope string, viewer social.Viewer) bool {
	if limiter == nil {
		return true
	}
	if limiter.Allow(rateLimitKey(r, scope, viewer)) {
		return true
	}
	metrics.IncRateLimited(scope)
	return false
}

func rateLimitKey(r *http.Request, scope string, viewer social.Viewer) string {
	caller := "ip:" + clientIP(r)
	if !viewer.IsAnonymous() {
		caller = "user:" + viewer.ID()
	}
	if scope == "" {
		return caller
	}
	return scope + ":" + caller
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
