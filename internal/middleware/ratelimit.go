package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"learnhub-backend/internal/auth"
)

const (
	loginLimit    = 5
	loginWindow   = time.Minute
	profileLimit  = 10
	profileWindow = time.Minute
)

// Limiter is a fixed-window counter. The redis cache implements it for
// multi-instance deployments; MemoryLimiter backs single-instance runs and
// tests, with counters that reset on restart.
type Limiter interface {
	IncrWithTTL(key string, ttl time.Duration) (int64, error)
}

// RateLimitLogin throttles credential guessing per client IP.
func RateLimitLogin(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:login:" + clientIP(r)
			count, err := limiter.IncrWithTTL(key, loginWindow)
			if err == nil && count > loginLimit {
				rateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitProfileUpdate throttles the profile-update endpoint per caller.
// Must run inside the auth middleware; unauthenticated requests fall back
// to the client IP.
func RateLimitProfileUpdate(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:profile:" + clientIP(r)
			if caller, ok := auth.CallerFromContext(r.Context()); ok {
				key = "rl:profile:" + caller.ID
			}
			count, err := limiter.IncrWithTTL(key, profileWindow)
			if err == nil && count > profileLimit {
				rateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
