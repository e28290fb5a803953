package routes

import (
	"github.com/awschultz/locationmodel/cmd/locationmodel/container"
	"github.com/awschultz/locationmodel/cmd/locationmodel/handlers"
	"github.com/awschultz/locationmodel/cmd/locationmodel/middleware"
	commonmw "github.com/awschultz/locationmodel/common/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterLocationRoutes registers all location model routes
func RegisterLocationRoutes(e *echo.Echo, c *container.Container) {
	cfg := c.Components.Config.LocationModel
	h := handlers.NewLocationHandler(c.LocationModel, c.Evaluator, c.Components.Logger)
	Register(e, h, commonmw.RateLimitMiddleware(c.RateLimiter, "rebuild", cfg.RebuildRateLimit, cfg.RebuildRateWindow))
}

// Register mounts the handler's endpoints on e
func Register(e *echo.Echo, h *handlers.LocationHandler, rebuildLimit echo.MiddlewareFunc) {
	model := e.Group("/api/v1/model")
	model.Use(middleware.ExtractUsername()) // Extract X-User-ID into context
	{
		model.POST("/rebuild", h.Rebuild, rebuildLimit) // POST /api/v1/model/rebuild
	}

	locations := e.Group("/api/v1/locations")
	{
		locations.GET("/lookup", h.LookupLocation)        // GET /api/v1/locations/lookup?path=Plant/Area
		locations.GET("/:id", h.GetLocation)              // GET /api/v1/locations/42
		locations.GET("/:id/tree", h.GetTree)             // GET /api/v1/locations/42/tree?filter=...
		locations.GET("/:id/components", h.GetComponents) // GET /api/v1/locations/42/components
	}
}
