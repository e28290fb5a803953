package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service       ServiceConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	LocationModel LocationModelConfig
	Telemetry     TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds the connection settings for the tag store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LocationModelConfig holds the location model settings.
// Prefixes are prepended verbatim to the slash-joined name path.
type LocationModelConfig struct {
	// Schema holding the Location table
	Schema string

	TagPathPrefix  string
	ViewPathPrefix string

	// ModelTagPath is the key the snapshot is persisted at
	ModelTagPath string

	// TagNamespacePrefix is the key prefix of the browsable tag namespace
	TagNamespacePrefix string

	SnapshotCacheTTL time.Duration

	// RebuildInterval of 0 disables periodic rebuilds
	RebuildInterval time.Duration

	// RebuildRateLimit caps rebuild requests per caller and window; 0 disables it
	RebuildRateLimit  int64
	RebuildRateWindow time.Duration
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
	MetricsPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "mes"),
			User:        getEnv("POSTGRES_USER", "mes"),
			Password:    getEnv("POSTGRES_PASSWORD", "mes"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		LocationModel: LocationModelConfig{
			Schema:             getEnv("LOCATION_MODEL_SCHEMA", "core"),
			TagPathPrefix:      getEnv("LOCATION_MODEL_TAG_PATH_PREFIX", "[default]Locations/"),
			ViewPathPrefix:     getEnv("LOCATION_MODEL_VIEW_PATH_PREFIX", "Locations/"),
			ModelTagPath:       getEnv("LOCATION_MODEL_TAG_PATH", "[default]Location Model/model"),
			TagNamespacePrefix: getEnv("LOCATION_MODEL_TAG_NAMESPACE_PREFIX", "tags"),
			SnapshotCacheTTL:   getEnvDuration("LOCATION_MODEL_SNAPSHOT_CACHE_TTL", 30*time.Second),
			RebuildInterval:    getEnvDuration("LOCATION_MODEL_REBUILD_INTERVAL", 0),
			RebuildRateLimit:   int64(getEnvInt("LOCATION_MODEL_REBUILD_RATE_LIMIT", 6)),
			RebuildRateWindow:  getEnvDuration("LOCATION_MODEL_REBUILD_RATE_WINDOW", time.Minute),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", false),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
	}

	if !isIdentifier(c.LocationModel.Schema) {
		return fmt.Errorf("invalid location model schema: %q", c.LocationModel.Schema)
	}

	if c.LocationModel.ModelTagPath == "" {
		return fmt.Errorf("location model tag path is required")
	}

	if c.LocationModel.RebuildInterval < 0 {
		return fmt.Errorf("rebuild interval cannot be negative")
	}

	if c.LocationModel.RebuildRateLimit > 0 && c.LocationModel.RebuildRateWindow < time.Second {
		return fmt.Errorf("rebuild rate window must be at least 1s")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// The schema name is interpolated into SQL, so only plain identifiers pass.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
