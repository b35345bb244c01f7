package mw

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/faceforge/faceforge-api/internal/ratelimit"
)

// RateLimit returns middleware that enforces cfg per identifier.
// Authenticated requests are keyed by user id, anonymous ones by client IP.
func RateLimit(limiter *ratelimit.Limiter, cfg ratelimit.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Check(cfg, requestIdentifier(r))
			writeRateHeaders(w, res)
			if !res.Allowed {
				writeRateLimited(w, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SwapRateLimit limits the face-swap endpoint: guests get the one-shot trial
// limit keyed by IP, authenticated users get the hourly swap limit keyed by
// user id.
func SwapRateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var res ratelimit.Result
			if claims := GetUserClaims(r.Context()); claims != nil {
				res = limiter.Check(ratelimit.FaceSwap, claims.UserID)
			} else {
				res = limiter.Check(ratelimit.GuestTrial, ClientIP(r))
			}
			writeRateHeaders(w, res)
			if !res.Allowed {
				writeRateLimited(w, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
}

func writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"error":"rate limit exceeded","code":"RATE_LIMIT_EXCEEDED","retry_after":%d}`, retryAfter)
}

// requestIdentifier keys the limit by user when authenticated, by IP
// otherwise.
func requestIdentifier(r *http.Request) string {
	if claims := GetUserClaims(r.Context()); claims != nil {
		return claims.UserID
	}
	return ClientIP(r)
}

// ClientIP extracts the originating client address, preferring proxy headers
// in the order the edge sets them.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// The first entry is the original client; later hops append.
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
