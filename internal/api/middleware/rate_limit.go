package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	apierrors "audio-whisper/internal/api/errors"
)

// RateLimiter throttles requests per client using a fixed redis window.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow counts one request against key and reports whether it fits the
// window. The remaining count is clamped at zero.
func (r *RateLimiter) Allow(c *gin.Context, key string) (int, bool, error) {
	ctx := c.Request.Context()

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return 0, false, err
		}
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, count <= int64(r.limit), nil
}

func clientKey(c *gin.Context) string {
	return fmt.Sprintf("rate_limit:enqueue:%s", c.ClientIP())
}

// RateLimit rejects clients that exceed the limiter's window with 429.
// Redis outages fail open so transcription keeps working without it.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		remaining, ok, err := limiter.Allow(c, clientKey(c))
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			apiErr := apierrors.NewRateLimitedError("Too many enqueue requests, retry later")
			apiErr.RequestID = c.GetString("request_id")
			c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
			return
		}

		c.Next()
	}
}
