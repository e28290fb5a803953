package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/awschultz/locationmodel/common/db"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/jackc/pgx/v5"
)

// LocationRepository handles database operations for the location tables
type LocationRepository struct {
	db      db.Querier
	queries locationQueries
}

type locationQueries struct {
	model            string
	children         string
	byID             string
	childrenFromName string
	rootsByName      string
}

// NewLocationRepository creates a new location repository reading from schema
func NewLocationRepository(q db.Querier, schema string) *LocationRepository {
	return &LocationRepository{
		db:      q,
		queries: buildLocationQueries(schema),
	}
}

func buildLocationQueries(schema string) locationQueries {
	return locationQueries{
		model: fmt.Sprintf(`
		SELECT l."LocationID", l."Name", l."orderNumber", l."shortName", l."description", l."icon",
		       l."ParentLocationID",
		       lt."Name" AS "locationType", l."LocationTypeID",
		       ltd."Name" AS "locationTypeDefinition", lt."LocationTypeDefinitionID",
		       ltd."UDTPath", ltd."IgnitionTemplatePath",
		       l."LastModifiedBy", l."LastModifiedOn"
		FROM %[1]s."Location" l
		LEFT JOIN %[1]s."LocationType" lt ON lt."LocationTypeID" = l."LocationTypeID"
		LEFT JOIN %[1]s."LocationTypeDefinition" ltd ON ltd."LocationTypeDefinitionID" = lt."LocationTypeDefinitionID"
		ORDER BY l."LocationID"
	`, schema),
		children: fmt.Sprintf(`
		SELECT "LocationID", "Name", "orderNumber", "ParentLocationID"
		FROM %s."Location"
		WHERE "ParentLocationID" = $1
		ORDER BY "LocationID"
	`, schema),
		byID: fmt.Sprintf(`
		SELECT "LocationID", "ParentLocationID", "Name"
		FROM %s."Location"
		WHERE "LocationID" = $1
	`, schema),
		childrenFromName: fmt.Sprintf(`
		SELECT c."LocationID", c."Name", c."orderNumber", c."ParentLocationID"
		FROM %[1]s."Location" p
		JOIN %[1]s."Location" c ON c."ParentLocationID" = p."LocationID"
		WHERE p."Name" = $1
		ORDER BY c."LocationID"
	`, schema),
		rootsByName: fmt.Sprintf(`
		SELECT "LocationID", "Name", "orderNumber", "ParentLocationID"
		FROM %s."Location"
		WHERE "Name" = $1 AND ("ParentLocationID" IS NULL OR "ParentLocationID" = 0)
		ORDER BY "LocationID"
	`, schema),
	}
}

// ListLocations returns every location row. Rows are returned as stored;
// NULL required columns are left for the caller to reject.
func (r *LocationRepository) ListLocations(ctx context.Context) ([]models.LocationRow, error) {
	rows, err := r.db.Query(ctx, r.queries.model)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []models.LocationRow
	for rows.Next() {
		var loc models.LocationRow
		err := rows.Scan(
			&loc.LocationID,
			&loc.Name,
			&loc.OrderNumber,
			&loc.ShortName,
			&loc.Description,
			&loc.Icon,
			&loc.ParentLocationID,
			&loc.LocationType,
			&loc.LocationTypeID,
			&loc.LocationTypeDefinition,
			&loc.LocationTypeDefinitionID,
			&loc.UDTPath,
			&loc.IgnitionTemplatePath,
			&loc.LastModifiedBy,
			&loc.LastModifiedOn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// ListChildren returns the direct children of a location, unsorted
func (r *LocationRepository) ListChildren(ctx context.Context, parentID int64) ([]models.ChildRow, error) {
	children, err := r.queryChildRows(ctx, r.queries.children, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %d: %w", parentID, err)
	}
	return children, nil
}

// ListChildrenOfName returns the children of every location named parentName
func (r *LocationRepository) ListChildrenOfName(ctx context.Context, parentName string) ([]models.ChildRow, error) {
	children, err := r.queryChildRows(ctx, r.queries.childrenFromName, parentName)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %q: %w", parentName, err)
	}
	return children, nil
}

// ListRootsByName returns the root locations named name
func (r *LocationRepository) ListRootsByName(ctx context.Context, name string) ([]models.ChildRow, error) {
	roots, err := r.queryChildRows(ctx, r.queries.rootsByName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list roots named %q: %w", name, err)
	}
	return roots, nil
}

// GetByID returns the parent reference and name of a single location
func (r *LocationRepository) GetByID(ctx context.Context, locationID int64) (*models.LocationRef, error) {
	var (
		ref  models.LocationRef
		name *string
	)
	err := r.db.QueryRow(ctx, r.queries.byID, locationID).Scan(
		&ref.LocationID,
		&ref.ParentID,
		&name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location %d: %w", locationID, err)
	}
	if name != nil {
		ref.Name = *name
	}

	return &ref, nil
}

func (r *LocationRepository) queryChildRows(ctx context.Context, query string, arg any) ([]models.ChildRow, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []models.ChildRow
	for rows.Next() {
		var child models.ChildRow
		if err := rows.Scan(&child.LocationID, &child.Name, &child.OrderNumber, &child.ParentLocationID); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children: %w", err)
	}

	return children, nil
}
