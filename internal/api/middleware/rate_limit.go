// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware enforces a per-identity fixed window of one
// minute, counted in Redis. Limits come from the organization tier.
type RateLimitMiddleware struct {
	redisClient *redis.Client
}

func NewRateLimitMiddleware(redisClient *redis.Client) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		redisClient: redisClient,
	}
}

func (m *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := rateLimitIdentity(c)
		if identity == "" {
			// Auth middleware should have set one of these
			c.Next()
			return
		}

		limit := limitForTier(c.GetString("tier"))

		ctx := c.Request.Context()
		window := time.Now().Unix() / 60
		windowKey := fmt.Sprintf("ratelimit:%s:%d", identity, window)

		count, err := m.redisClient.Incr(ctx, windowKey).Result()
		if err != nil {
			// On Redis error, allow the request (fail open)
			c.Next()
			return
		}
		if count == 1 {
			m.redisClient.Expire(ctx, windowKey, 2*time.Minute)
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt((window+1)*60, 10))

		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded",
					"details": gin.H{
						"limit": limit,
						"reset": (window + 1) * 60,
					},
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitIdentity prefers the API key hash so each key gets its own
// window; console sessions fall back to the organization.
func rateLimitIdentity(c *gin.Context) string {
	if keyHash := c.GetString("api_key_hash"); keyHash != "" {
		return keyHash
	}
	return c.GetString("organization_id")
}

func limitForTier(tier string) int {
	switch tier {
	case "enterprise":
		return 1000 // 1000 RPM
	case "team":
		return 300 // 300 RPM
	default:
		return 60 // starter
	}
}
