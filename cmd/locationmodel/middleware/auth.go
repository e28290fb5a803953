package middleware

import (
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UsernameKey is the context key for storing the requesting username
	UsernameKey ContextKey = "username"
)

// ExtractUsername is a middleware that extracts the X-User-ID header
// and stores it in the request context. Rebuilds record it as requested_by.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractUsername())
//
// Accessing in handlers:
//
//	username := middleware.GetUsername(c)
func ExtractUsername() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if username := c.Request().Header.Get("X-User-ID"); username != "" {
				c.Set(string(UsernameKey), username)
			}
			return next(c)
		}
	}
}

// GetUsername retrieves the username from the request context
// Returns empty string if not set
func GetUsername(c echo.Context) string {
	username, _ := c.Get(string(UsernameKey)).(string)
	return username
}
