package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	adminBlockDuration = time.Hour
	adminHardCeiling   = 5
)

// TagAction marks the route's audit action for AdminActionRateLimit. Must be
// registered before the rate limiter on the route.
func TagAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("audit_action", action)
		c.Next()
	}
}

// AdminActionRateLimit throttles sensitive admin actions using the audit
// trail as the counter. Exceeding the soft limit returns 429; a burst past
// the hard ceiling escalates to an hour-long block stored in Redis.
func AdminActionRateLimit(auditService *services.AuditService, redisClient *redis.Client, maxActions, windowMinutes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := c.GetString("audit_action")
		if action == "" {
			c.Next()
			return
		}
		adminID, ok := c.MustGet("userID").(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := context.Background()
		blockKey := fmt.Sprintf("admin_blocked:%s:%s", adminID.String(), action)

		if redisClient != nil {
			if val, err := redisClient.Get(ctx, blockKey).Result(); err == nil && val == "1" {
				ttl, _ := redisClient.TTL(ctx, blockKey).Result()
				rejectBlocked(c, gin.H{"blocked_until_minutes": int(ttl.Minutes())})
				return
			}
		}

		window := time.Duration(windowMinutes) * time.Minute
		count, err := auditService.GetActionCount(adminID, action, time.Now().Add(-window))
		if err != nil {
			// counting failed; let the action through rather than lock admins out
			c.Next()
			return
		}

		if count >= adminHardCeiling {
			if redisClient != nil {
				_ = redisClient.Set(ctx, blockKey, "1", adminBlockDuration).Err()
			}
			rejectBlocked(c, gin.H{"blocked_for_minutes": int(adminBlockDuration.Minutes())})
			return
		}

		if count >= int64(maxActions) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate_limit_exceeded",
				"message":             "Too many actions in a short time. Please wait a few minutes.",
				"retry_after_minutes": windowMinutes,
				"warning":             "Further attempts will result in a temporary block.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func rejectBlocked(c *gin.Context, extra gin.H) {
	payload := gin.H{
		"error":   "admin_temporarily_blocked",
		"message": "This account is temporarily blocked after repeated sensitive actions. Contact the system administrator if this was not you.",
	}
	for k, v := range extra {
		payload[k] = v
	}
	c.JSON(http.StatusForbidden, payload)
	c.Abort()
}
