package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles reservation traffic per member (falling back to
// client IP) using a fixed redis counter window.
type RateLimiter struct {
	redis    *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(redisClient *redis.Client, requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{redis: redisClient, requests: requests, window: window}
}

// Allow counts one request for the identity and reports whether it is
// still within the window budget. Redis failures fail open: reservation
// availability wins over throttling.
func (r *RateLimiter) Allow(ctx context.Context, identity string) bool {
	key := fmt.Sprintf("ratelimit:%s", identity)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		r.redis.Expire(ctx, key, r.window)
	}
	return count <= int64(r.requests)
}

// Middleware rejects bot user agents and callers that exceed the
// window budget.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		if !r.Allow(e.Request.Context(), r.identify(e)) {
			return apis.NewApiError(429, "Rate limit exceeded. Please try again later.", nil)
		}
		return e.Next()
	}
}

func (r *RateLimiter) identify(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "member:" + e.Auth.Id
	}
	return "ip:" + e.RealIP()
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
