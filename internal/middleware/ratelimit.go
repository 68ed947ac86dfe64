package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bizgenius/api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Next() // Skip rate limiting if no user (auth middleware should catch this)
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := context.Background()

		// Increment counter
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			// Get TTL for retry-after header
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		// Add rate limit headers
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// SessionLimit returns a rate limiter for session creation/retry endpoints
func (rl *RateLimiter) SessionLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("sessions", maxPerHour, time.Hour)
}

// QuestionLimit returns a rate limiter for smart-question endpoints
func (rl *RateLimiter) QuestionLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("questions", maxPerMin, time.Minute)
}

// IdeaLimit returns a rate limiter for idea endpoints
func (rl *RateLimiter) IdeaLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("ideas", maxPerHour, time.Hour)
}

// BillingLimit returns a rate limiter for billing endpoints
func (rl *RateLimiter) BillingLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("billing", maxPerHour, time.Hour)
}
