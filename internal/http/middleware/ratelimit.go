// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the inbound rate limiter: an in-memory token bucket
// per client, built on golang.org/x/time/rate, with opportunistic eviction of
// idle buckets. It is process-local; several replicas each enforce their own
// budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// visitorTTL is how long an idle bucket is kept.
	visitorTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between idle sweeps.
	sweepEvery = 5000
)

// keyFunc maps a request to its bucket identity, e.g. "ip:203.0.113.7".
type keyFunc func(*gin.Context) string

// KeyByIP returns a keyFunc that buckets requests by client IP.
//
// The user in the route is the subject of the lookup, not the caller, so it
// is never used as the identity.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. It is safe for concurrent
// use once Handler has been installed.
type RateLimiter struct {
	rps        rate.Limit
	burst      int
	retryAfter string
	keyFn      keyFunc
	exempt     map[string]struct{}

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst. A non-positive rps disables limiting; burst is coerced to at
// least 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	retry := 1
	if rps > 0 {
		retry = int(math.Ceil(1 / rps))
	}
	return &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		retryAfter: strconv.Itoa(retry),
		keyFn:      keyFn,
		exempt:     make(map[string]struct{}),
		visitors:   make(map[string]*visitor),
		ttl:        visitorTTL,
	}
}

// Exempt excludes the given request paths from limiting. Call it before
// Handler is installed.
func (rl *RateLimiter) Exempt(paths ...string) *RateLimiter {
	for _, p := range paths {
		rl.exempt[p] = struct{}{}
	}
	return rl
}

// getVisitor returns the limiter for key, creating it if absent. The idle
// sweep runs before the lookup so a stale bucket is dropped even when it is
// the one requested.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the Gin middleware. A rejected request gets
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds until one token refills>
//	{"request_id": "...", "code": "too_many_requests", "message": "rate limit exceeded"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if _, skip := rl.exempt[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", rl.retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
