package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// ScanRateLimit caps validation attempts per caller per window. Scanners
// are authenticated, so the auth record id is the natural key; anything
// unauthenticated falls back to the remote IP.
func (r *RateLimiter) ScanRateLimit(max int, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identifier := e.RealIP()
		if e.Auth != nil {
			identifier = fmt.Sprintf("user:%s", e.Auth.Id)
		}

		if !r.allow(e.Request.Context(), identifier, max, window) {
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many scan attempts. Please slow down.",
			})
		}

		return e.Next()
	}
}

// allow counts the attempt and reports whether the caller is still under
// the cap. Redis being down fails open: gate availability beats rate
// accounting.
func (r *RateLimiter) allow(ctx context.Context, identifier string, max int, window time.Duration) bool {
	key := fmt.Sprintf("scanlimit:%s", identifier)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}

	if count == 1 {
		r.redis.Expire(ctx, key, window)
	}
	return count <= int64(max)
}
