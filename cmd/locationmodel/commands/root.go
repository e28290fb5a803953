package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/awschultz/locationmodel/cmd/locationmodel/container"
	"github.com/awschultz/locationmodel/common/bootstrap"
	"github.com/awschultz/locationmodel/common/config"
	"github.com/awschultz/locationmodel/common/logger"
	"github.com/spf13/cobra"
)

const serviceName = "locationmodel"

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:           "locationmodel",
	Short:         "Build and serve the hierarchical location model",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text or json), overrides LOG_FORMAT")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the log flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyLogFlags(cfg, logLevel, logFormat)
	return cfg, nil
}

func applyLogFlags(cfg *config.Config, level, format string) {
	if level != "" {
		cfg.Service.LogLevel = level
	}
	if format != "" {
		cfg.Service.LogFormat = format
	}
}

// bootstrapOptions hands the loaded config to bootstrap. Commands that print
// results to stdout log to stderr instead.
func bootstrapOptions(printsOutput bool, opts ...bootstrap.Option) ([]bootstrap.Option, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	opts = append(opts, bootstrap.WithCustomConfig(cfg))
	if printsOutput {
		log := logger.NewWithWriter(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogFormat)
		opts = append(opts, bootstrap.WithCustomLogger(log))
	}
	return opts, nil
}

// setupContainer bootstraps the shared components and the service container.
// The returned cleanup shuts the components down.
func setupContainer(ctx context.Context, printsOutput bool, opts ...bootstrap.Option) (*container.Container, func(), error) {
	opts, err := bootstrapOptions(printsOutput, opts...)
	if err != nil {
		return nil, nil, err
	}

	components, err := bootstrap.Setup(ctx, serviceName, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap %s: %w", serviceName, err)
	}
	cleanup := func() { _ = components.Shutdown(context.Background()) }

	c, err := container.NewContainer(components)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize service container: %w", err)
	}

	return c, cleanup, nil
}
