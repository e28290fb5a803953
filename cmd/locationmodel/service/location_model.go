package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awschultz/locationmodel/common/cache"
	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/google/uuid"
)

// ErrBuildInProgress is returned when a rebuild is requested while one runs
var ErrBuildInProgress = errors.New("location model build already in progress")

const snapshotCacheKey = "snapshot"

// LocationModelService ties the build pipeline to the read side
type LocationModelService struct {
	builder      *SnapshotBuilder
	store        SnapshotStore
	resolver     *PathResolver
	materializer *TreeMaterializer
	discovery    *ComponentDiscovery
	cache        cache.Cache[*models.Snapshot]
	cacheTTL     time.Duration
	log          *logger.Logger

	buildMu sync.Mutex
}

// LocationModelServiceOpts contains options for creating a LocationModelService
type LocationModelServiceOpts struct {
	Builder      *SnapshotBuilder
	Store        SnapshotStore
	Resolver     *PathResolver
	Materializer *TreeMaterializer
	Discovery    *ComponentDiscovery
	Cache        cache.Cache[*models.Snapshot]
	CacheTTL     time.Duration
	Logger       *logger.Logger
}

// NewLocationModelService creates a new location model service with options pattern
func NewLocationModelService(opts *LocationModelServiceOpts) *LocationModelService {
	return &LocationModelService{
		builder:      opts.Builder,
		store:        opts.Store,
		resolver:     opts.Resolver,
		materializer: opts.Materializer,
		discovery:    opts.Discovery,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		log:          opts.Logger,
	}
}

// BuildSummary describes one completed rebuild
type BuildSummary struct {
	BuildID             uuid.UUID `json:"build_id"`
	BuiltAt             time.Time `json:"built_at"`
	Records             int       `json:"records"`
	Skipped             int       `json:"skipped"`
	UnresolvedTreePaths int       `json:"unresolved_tree_paths"`
	DurationMs          int64     `json:"duration_ms"`
	RequestedBy         string    `json:"requested_by,omitempty"`
}

// Rebuild builds a fresh snapshot, annotates tree paths and persists it.
// Only one rebuild runs at a time; a concurrent call returns
// ErrBuildInProgress immediately.
func (s *LocationModelService) Rebuild(ctx context.Context, requestedBy string) (*BuildSummary, error) {
	if !s.buildMu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer s.buildMu.Unlock()

	start := time.Now()
	s.log.Info("location model rebuild started", "requested_by", requestedBy)

	snapshot, err := s.builder.Build(ctx)
	if err != nil {
		buildsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to build location model: %w", err)
	}

	unresolved := AnnotateTreePaths(snapshot, s.log.WithBuildID(snapshot.BuildID.String()))

	if err := s.store.Write(ctx, snapshot); err != nil {
		buildsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to persist location model: %w", err)
	}
	s.cache.Set(snapshotCacheKey, snapshot, s.cacheTTL)

	elapsed := time.Since(start)
	buildDuration.Observe(elapsed.Seconds())
	buildsTotal.WithLabelValues("ok").Inc()
	snapshotRecords.Set(float64(snapshot.Len()))

	summary := &BuildSummary{
		BuildID:             snapshot.BuildID,
		BuiltAt:             snapshot.BuiltAt,
		Records:             snapshot.Len(),
		Skipped:             snapshot.Skipped,
		UnresolvedTreePaths: unresolved,
		DurationMs:          elapsed.Milliseconds(),
		RequestedBy:         requestedBy,
	}

	s.log.Info("location model rebuild finished",
		"build_id", summary.BuildID.String(),
		"records", summary.Records,
		"skipped", summary.Skipped,
		"unresolved_tree_paths", unresolved,
		"duration_ms", summary.DurationMs,
	)

	return summary, nil
}

// Snapshot returns the latest persisted snapshot, served from the cache
// while it is fresh.
func (s *LocationModelService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if snapshot, ok := s.cache.Get(snapshotCacheKey); ok {
		return snapshot, nil
	}

	snapshot, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotCacheKey, snapshot, s.cacheTTL)

	s.log.Debug("snapshot loaded", "build_id", snapshot.BuildID.String(), "records", snapshot.Len())

	return snapshot, nil
}

// LocationDetails returns the column map of one location
func (s *LocationModelService) LocationDetails(ctx context.Context, locationID int64) (map[string]any, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if _, ok := snapshot.Record(locationID); !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
	}
	return snapshot.Details(locationID), nil
}

// Tree materializes the subtree under locationID
func (s *LocationModelService) Tree(ctx context.Context, locationID int64, opts TreeOptions) (models.TreeResult, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return models.TreeResult{}, err
	}

	if _, ok := snapshot.Record(locationID); !ok {
		return models.TreeResult{}, fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
	}
	return s.materializer.Materialize(snapshot, locationID, opts), nil
}

// Components discovers the components under the location's tag path
func (s *LocationModelService) Components(ctx context.Context, locationID int64) ([]models.Component, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rec, ok := snapshot.Record(locationID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
	}
	if rec.TagPath == "" {
		return nil, fmt.Errorf("%w: location %d has no tag path", models.ErrBrokenReference, locationID)
	}

	return s.discovery.Discover(ctx, rec.TagPath)
}

// LocationIDFromPath resolves a slash-joined location name path
func (s *LocationModelService) LocationIDFromPath(ctx context.Context, locationPath string) (int64, error) {
	return s.resolver.LocationIDFromPath(ctx, locationPath)
}

// RunPeriodicRebuild rebuilds every interval until ctx is cancelled
func (s *LocationModelService) RunPeriodicRebuild(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("periodic rebuild enabled", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.log.Info("periodic rebuild stopped")
			return
		case <-ticker.C:
			_, err := s.Rebuild(ctx, "scheduler")
			switch {
			case err == nil:
			case errors.Is(err, ErrBuildInProgress):
				s.log.Debug("periodic rebuild skipped, build in progress")
			case ctx.Err() != nil:
				return
			default:
				s.log.Error("periodic rebuild failed", "error", err)
			}
		}
	}
}
