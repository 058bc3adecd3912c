package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit caps requests per key and minute using Redis counters. keyFn picks
// the bucket (for example the account id); an empty key falls back to the
// client IP. Without Redis, or when Redis fails, requests pass through.
func RateLimit(cache *redis.Client, prefix string, maxPerMin int, keyFn func(*fiber.Ctx) string) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 60
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		bucket := ""
		if keyFn != nil {
			bucket = keyFn(c)
		}
		if bucket == "" {
			bucket = c.IP()
		}
		key := "rl:" + prefix + ":" + bucket
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
