package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/awschultz/locationmodel/cmd/locationmodel/container"
	lmmiddleware "github.com/awschultz/locationmodel/cmd/locationmodel/middleware"
	"github.com/awschultz/locationmodel/cmd/locationmodel/routes"
	"github.com/awschultz/locationmodel/common/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

const healthTimeout = 2 * time.Second

var rebuildOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&rebuildOnStart, "rebuild", false, "Rebuild the location model before serving")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the location model HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, cleanup, err := setupContainer(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		log := c.Components.Logger
		cfg := c.Components.Config

		if rebuildOnStart {
			if _, err := c.LocationModel.Rebuild(ctx, "startup"); err != nil {
				log.Error("startup rebuild failed", "error", err)
			}
		}

		if interval := cfg.LocationModel.RebuildInterval; interval > 0 {
			go c.LocationModel.RunPeriodicRebuild(ctx, interval)
		}

		e := setupEcho(c)
		srv := server.New(serviceName, cfg.Service.Port, e, log)
		return srv.Start(ctx)
	},
}

// setupEcho initializes the Echo server with middleware, health check and routes
func setupEcho(c *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(lmmiddleware.RequestTraceID())
	e.Use(middleware.CORS())

	e.GET("/health", func(ec echo.Context) error {
		ctx, cancel := context.WithTimeout(ec.Request().Context(), healthTimeout)
		defer cancel()

		if err := c.Components.Health(ctx); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
		})
	})

	routes.RegisterLocationRoutes(e, c)

	return e
}
