package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
)

// RateLimit enforces a fixed-window per-client limit backed by Redis.
// Failures open: when Redis is unreachable requests pass through, because
// the limiter protects capacity, it is not an availability dependency.
func RateLimit(cfg *config.RateLimitConfig, redisClient *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A non-positive window cannot bucket requests; treat it as disabled.
		if !cfg.Enabled || redisClient == nil || cfg.Window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", clientKey(c), time.Now().Unix()/int64(cfg.Window.Seconds()))

		count, err := redisClient.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.WithError(err).Warn("Rate limit check failed, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			redisClient.Expire(c.Request.Context(), key, cfg.Window)
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			logger.WithFields(logrus.Fields{
				"client": clientKey(c),
				"limit":  cfg.Limit,
			}).Warn("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if userID, exists := c.Get(userIDContextKey); exists {
		if id, ok := userID.(int64); ok {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return "ip:" + c.ClientIP()
}
