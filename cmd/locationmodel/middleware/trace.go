package middleware

import (
	"context"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/labstack/echo/v4"
)

// RequestTraceID copies the request id assigned by echo's RequestID
// middleware into the request context, where logger.WithContext finds it.
// It must be registered after RequestID.
func RequestTraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if rid != "" {
				ctx := context.WithValue(c.Request().Context(), logger.TraceIDKey, rid)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
