package middleware

import (
	"net/http"
	"time"

	"github.com/awschultz/locationmodel/common/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware limits requests per client IP within a fixed window.
// The username header is unauthenticated, so it only labels the response
// and never selects the counter. A limit of 0 disables the check.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limit <= 0 {
			return next
		}

		return func(c echo.Context) error {
			clientIP := c.RealIP()

			result, err := limiter.Allow(c.Request().Context(), scope+":ip:"+clientIP, limit, window)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many requests. Please wait before trying again.",
					"details": map[string]interface{}{
						"scope":               scope,
						"client_ip":           clientIP,
						"limit":               result.Limit,
						"window":              window.String(),
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
