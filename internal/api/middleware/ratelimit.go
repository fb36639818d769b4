package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter hands out a token bucket per client key. Buckets for idle
// clients age out of the cache.
type RateLimiter struct {
	requests int
	limit    rate.Limit
	buckets  *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows requests per window with bursts up to requests.
func NewRateLimiter(requests int, windowSeconds int) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	window := time.Duration(windowSeconds) * time.Second

	return &RateLimiter{
		requests: requests,
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		buckets:  expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, 2*window),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if lim, ok := rl.buckets.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(rl.limit, rl.requests)
	rl.buckets.Add(key, lim)
	return lim
}

// Allow reports whether key may proceed, the tokens left, and how long a
// rejected caller should wait.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	lim := rl.limiter(key)
	now := time.Now()

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Max(0, lim.TokensAt(now))), 0
}

// RateLimit returns a middleware that applies rate limiting per client IP.
// Forwarding headers pick the client only when trustProxy is set.
func RateLimit(requests int, windowSeconds int, trustProxy bool) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, windowSeconds)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := limiter.Allow(clientIP(r, trustProxy))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request. Without a trusted
// proxy in front, client-supplied forwarding headers are ignored.
func clientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
