package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps daily media uploads per admin. The counter lives
// until midnight so the limit stays predictable for the boutique staff.
// Mounted only on the upload routes.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := c.MustGet("userID").(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := context.Background()
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", adminID.String(), now.Format("2006-01-02"))

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis down; don't block the upload
			c.Next()
			return
		}
		if count == 1 {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			_ = redisClient.Expire(ctx, key, midnight.Sub(now)).Err()
		}

		if count > int64(cfg.UploadMaxPerDay) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload_rate_limit_exceeded",
				"message":             "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"max_uploads_per_day": cfg.UploadMaxPerDay,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
