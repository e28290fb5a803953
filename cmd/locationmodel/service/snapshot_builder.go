package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/awschultz/locationmodel/common/config"
	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/google/uuid"
)

// LocationSource supplies the raw rows a snapshot is built from
type LocationSource interface {
	ListLocations(ctx context.Context) ([]models.LocationRow, error)
	ListChildren(ctx context.Context, parentID int64) ([]models.ChildRow, error)
}

// SnapshotBuilder turns the location tables into a flattened snapshot.
// Tree paths are left blank; AnnotateTreePaths fills them in.
type SnapshotBuilder struct {
	source   LocationSource
	resolver *PathResolver
	cfg      config.LocationModelConfig
	log      *logger.Logger
}

// NewSnapshotBuilder creates a new snapshot builder
func NewSnapshotBuilder(source LocationSource, resolver *PathResolver, cfg config.LocationModelConfig, log *logger.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		source:   source,
		resolver: resolver,
		cfg:      cfg,
		log:      log,
	}
}

// Build queries every location and its children and assembles one record
// per location. A row that cannot be built is skipped and counted in
// Snapshot.Skipped; only a failure of the bulk query fails the build.
func (b *SnapshotBuilder) Build(ctx context.Context) (*models.Snapshot, error) {
	buildID, err := uuid.NewV7()
	if err != nil {
		buildID = uuid.New()
	}
	log := b.log.WithBuildID(buildID.String())

	rows, err := b.source.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query location model: %w", err)
	}

	log.Info("building location model", "rows", len(rows))

	records := make([]models.LocationRecord, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	skipped := 0

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("location model build cancelled: %w", err)
		}

		row := &rows[i]
		if err := row.Validate(); err != nil {
			log.Warn("skipping malformed location row", "row", i, "error", err)
			skippedRecords.WithLabelValues("malformed").Inc()
			skipped++
			continue
		}

		locationID := *row.LocationID
		recordLog := log.WithLocationID(locationID)
		if seen[locationID] {
			recordLog.Warn("skipping duplicate location row")
			skippedRecords.WithLabelValues("duplicate").Inc()
			skipped++
			continue
		}
		// the first row claims the ID even when it fails to build
		seen[locationID] = true

		record, err := b.buildRecord(ctx, recordLog, row)
		if err != nil {
			recordLog.Warn("skipping location", "error", err)
			skippedRecords.WithLabelValues("query").Inc()
			skipped++
			continue
		}

		records = append(records, record)
	}

	snapshot := models.NewSnapshot(buildID, records)
	snapshot.Skipped = skipped

	log.Info("location model built", "records", snapshot.Len(), "skipped", skipped)

	return snapshot, nil
}

// buildRecord assembles one record. Path resolution problems degrade the
// record's paths; only a failed children query rejects the record.
func (b *SnapshotBuilder) buildRecord(ctx context.Context, log *logger.Logger, row *models.LocationRow) (models.LocationRecord, error) {
	record := models.NewLocationRecord(row)

	children, err := b.source.ListChildren(ctx, record.LocationID)
	if err != nil {
		return models.LocationRecord{}, err
	}
	SortChildren(children)

	ids := make([]int64, len(children))
	for i, child := range children {
		ids[i] = child.LocationID
	}
	record.ChildrenCount = len(children)
	record.ChildrenIDs = models.JoinChildrenIDs(ids)

	paths, err := b.resolver.Resolve(ctx, record.LocationID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrBrokenReference):
		log.Warn("location has a broken parent reference", "error", err)
		degradedPaths.WithLabelValues("location", "broken_reference").Inc()
	case errors.Is(err, models.ErrCycleDetected):
		log.Warn("location is part of a parent cycle", "error", err)
		degradedPaths.WithLabelValues("location", "cycle").Inc()
	case errors.Is(err, models.ErrLocationNotFound):
		log.Warn("location vanished during build")
		degradedPaths.WithLabelValues("location", "not_found").Inc()
	default:
		return models.LocationRecord{}, fmt.Errorf("resolve paths: %w", err)
	}

	record.LocationIDPath = paths.IDPath()
	if namePath := paths.NamePath(); namePath != "" {
		record.LocationPath = namePath
		record.TagPath = b.cfg.TagPathPrefix + namePath
		record.ViewPath = b.cfg.ViewPathPrefix + namePath
	}

	return record, nil
}

// SortChildren orders siblings for display. A sibling with a non-zero
// orderNumber sorts by that number; one without sorts by name. Numbered
// siblings come before named ones, and ties keep query order.
func SortChildren(children []models.ChildRow) {
	slices.SortStableFunc(children, compareSiblings)
}

func compareSiblings(a, b models.ChildRow) int {
	ao, aNumbered := siblingOrder(a)
	bo, bNumbered := siblingOrder(b)

	switch {
	case aNumbered && bNumbered:
		return cmp.Compare(ao, bo)
	case aNumbered:
		return -1
	case bNumbered:
		return 1
	default:
		return strings.Compare(a.DisplayName(), b.DisplayName())
	}
}

func siblingOrder(c models.ChildRow) (int64, bool) {
	if c.OrderNumber == nil || *c.OrderNumber == 0 {
		return 0, false
	}
	return *c.OrderNumber, true
}
