package container

import (
	"fmt"

	"github.com/awschultz/locationmodel/cmd/locationmodel/condition"
	"github.com/awschultz/locationmodel/cmd/locationmodel/service"
	"github.com/awschultz/locationmodel/common/bootstrap"
	"github.com/awschultz/locationmodel/common/cache"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/awschultz/locationmodel/common/ratelimit"
	"github.com/awschultz/locationmodel/common/repository"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	LocationRepo *repository.LocationRepository

	// Services
	Resolver      *service.PathResolver
	Builder       *service.SnapshotBuilder
	Materializer  *service.TreeMaterializer
	SnapshotStore *service.RedisSnapshotStore
	TagBrowser    *service.RedisTagBrowser
	Discovery     *service.ComponentDiscovery
	Evaluator     *condition.Evaluator
	LocationModel *service.LocationModelService
	RateLimiter   *ratelimit.RateLimiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	if components.DB == nil {
		return nil, fmt.Errorf("location model requires a database connection")
	}
	if components.Redis == nil {
		return nil, fmt.Errorf("location model requires a redis connection")
	}

	cfg := components.Config.LocationModel
	log := components.Logger

	// Initialize repositories
	locationRepo := repository.NewLocationRepository(components.DB, cfg.Schema)

	// Initialize services (bottom-up: dependencies first)
	resolver := service.NewPathResolver(locationRepo, log)
	builder := service.NewSnapshotBuilder(locationRepo, resolver, cfg, log)
	materializer := service.NewTreeMaterializer(log)
	store := service.NewRedisSnapshotStore(components.Redis, cfg.ModelTagPath, log)
	browser := service.NewRedisTagBrowser(components.Redis, cfg.TagNamespacePrefix, log)
	discovery := service.NewComponentDiscovery(browser, log)

	locationModel := service.NewLocationModelService(&service.LocationModelServiceOpts{
		Builder:      builder,
		Store:        store,
		Resolver:     resolver,
		Materializer: materializer,
		Discovery:    discovery,
		Cache:        cache.NewMemoryCache[*models.Snapshot](),
		CacheTTL:     cfg.SnapshotCacheTTL,
		Logger:       log,
	})

	return &Container{
		Components:    components,
		LocationRepo:  locationRepo,
		Resolver:      resolver,
		Builder:       builder,
		Materializer:  materializer,
		SnapshotStore: store,
		TagBrowser:    browser,
		Discovery:     discovery,
		Evaluator:     condition.NewEvaluator(log),
		LocationModel: locationModel,
		RateLimiter:   ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), "rate_limit", log),
	}, nil
}
