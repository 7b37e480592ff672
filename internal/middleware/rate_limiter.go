package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles requests per client IP with a fixed Redis window.
// Redis being down never takes the storefront down with it; the limiter
// lets traffic through and logs.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("WARN: rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := redisClient.Expire(ctx, key, cfg.RateLimitDuration).Err(); err != nil {
				log.Printf("WARN: rate limiter failed to set window: %v", err)
			}
		}

		limit := int64(cfg.RateLimitRequests)
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": ttl.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
