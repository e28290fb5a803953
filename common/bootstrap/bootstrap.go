package bootstrap

import (
	"context"
	"fmt"

	"github.com/awschultz/locationmodel/common/config"
	"github.com/awschultz/locationmodel/common/db"
	"github.com/awschultz/locationmodel/common/logger"
	rediscommon "github.com/awschultz/locationmodel/common/redis"
	"github.com/awschultz/locationmodel/common/telemetry"
	"github.com/redis/go-redis/v9"
)

// Setup initializes all service components
// This is the main entry point for every command
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize database (if not skipped)
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})
	}

	// 4. Initialize redis
	components.Logger.Info("connecting to redis", "addr", components.Config.RedisAddr())
	raw := redis.NewClient(&redis.Options{
		Addr:     components.Config.RedisAddr(),
		Password: components.Config.Redis.Password,
		DB:       components.Config.Redis.DB,
	})
	components.Redis = rediscommon.NewClient(raw, components.Logger)

	if err := components.Redis.Ping(ctx); err != nil {
		components.Shutdown(ctx)
		_ = raw.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	components.addCleanup(func() error {
		components.Logger.Info("closing redis connection")
		return components.Redis.Close()
	})

	// 5. Initialize telemetry (if not skipped)
	telemetryCfg := components.Config.Telemetry
	if !options.skipTelemetry && (telemetryCfg.EnablePprof || telemetryCfg.EnableMetrics) {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(telemetryCfg, components.Logger)

		if err := components.Telemetry.Start(ctx); err != nil {
			// Don't fail startup if telemetry fails
			components.Logger.Warn("failed to start telemetry", "error", err)
		} else {
			components.addCleanup(func() error {
				return components.Telemetry.Stop(context.Background())
			})
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}
