package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mhsanaei/blogpanel/logger"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig limits per client IP.
func DefaultRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: perMinute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware answers 429 once a key exceeded its budget for the
// current minute. A non-positive budget disables the limit.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	counters := cache.New(time.Minute, 2*time.Minute)
	return func(c *gin.Context) {
		if config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}
		key := "ratelimit:" + config.KeyFunc(c) + ":" + c.Request.URL.Path

		// Add only succeeds when the window for key is not open yet.
		_ = counters.Add(key, 0, time.Minute)
		count, err := counters.IncrementInt(key, 1)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}

		remaining := config.RequestsPerMinute - count
		if remaining < 0 {
			logger.Warningf("Rate limit exceeded for %s (count: %d)", key, count)
			c.Header("Retry-After", "60")
			c.String(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
