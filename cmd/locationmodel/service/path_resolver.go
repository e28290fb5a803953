package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
)

// LocationLookup is the per-location query surface the resolver walks
type LocationLookup interface {
	GetByID(ctx context.Context, locationID int64) (*models.LocationRef, error)
	ListChildrenOfName(ctx context.Context, parentName string) ([]models.ChildRow, error)
	ListRootsByName(ctx context.Context, name string) ([]models.ChildRow, error)
}

// LocationPaths is the root-to-node chain of one location
type LocationPaths struct {
	IDs   []int64
	Names []string

	// Complete is false when the walk stopped at a broken parent reference
	Complete bool
}

// IDPath renders the ID chain joined with "$"
func (p LocationPaths) IDPath() string {
	return models.JoinIDPath(p.IDs)
}

// NamePath renders the name chain joined with "/", or "" when the chain
// is incomplete. An empty name path means unresolvable.
func (p LocationPaths) NamePath() string {
	if !p.Complete {
		return ""
	}
	return strings.Join(p.Names, models.NamePathSeparator)
}

// PathResolver derives ID and name paths by walking parent references
// through the backing store, one lookup per level.
type PathResolver struct {
	lookup LocationLookup
	log    *logger.Logger
}

// NewPathResolver creates a new path resolver
func NewPathResolver(lookup LocationLookup, log *logger.Logger) *PathResolver {
	return &PathResolver{
		lookup: lookup,
		log:    log,
	}
}

// Resolve walks from locationID to its root.
//
// Errors:
//   - models.ErrLocationNotFound when locationID itself does not exist
//   - models.ErrBrokenReference when an ancestor is missing; the returned
//     paths hold the chain below the broken link
//   - models.ErrCycleDetected when a location is its own ancestor
func (r *PathResolver) Resolve(ctx context.Context, locationID int64) (LocationPaths, error) {
	ref, err := r.lookup.GetByID(ctx, locationID)
	if err != nil {
		return LocationPaths{}, err
	}

	chain := []models.LocationRef{*ref}
	visited := map[int64]bool{ref.LocationID: true}

	for ref.HasParent() {
		parentID := *ref.ParentID
		if visited[parentID] {
			return LocationPaths{}, fmt.Errorf("%w: location %d reaches %d again", models.ErrCycleDetected, locationID, parentID)
		}
		visited[parentID] = true

		parent, err := r.lookup.GetByID(ctx, parentID)
		if errors.Is(err, models.ErrLocationNotFound) {
			return pathsOf(chain, false), fmt.Errorf("%w: location %d has missing parent %d", models.ErrBrokenReference, ref.LocationID, parentID)
		}
		if err != nil {
			return LocationPaths{}, err
		}

		chain = append(chain, *parent)
		ref = parent
	}

	return pathsOf(chain, true), nil
}

// ResolveIDPath returns the ancestor ID chain from root to locationID.
// On a broken reference the partial chain is returned with the error.
func (r *PathResolver) ResolveIDPath(ctx context.Context, locationID int64) ([]int64, error) {
	paths, err := r.Resolve(ctx, locationID)
	return paths.IDs, err
}

// ResolveNamePath returns the slash-joined name chain, or "" when any
// ancestor cannot be resolved.
func (r *PathResolver) ResolveNamePath(ctx context.Context, locationID int64) string {
	paths, err := r.Resolve(ctx, locationID)
	if err != nil {
		r.log.Debug("name path unresolvable", "location_id", locationID, "error", err)
		return ""
	}
	return paths.NamePath()
}

// LocationIDFromPath finds the location addressed by a slash-joined name
// path such as "Plant/Packaging/Line 1". The first segment must name a root.
func (r *PathResolver) LocationIDFromPath(ctx context.Context, locationPath string) (int64, error) {
	names := strings.Split(strings.Trim(locationPath, models.NamePathSeparator), models.NamePathSeparator)
	if len(names) == 0 || names[0] == "" {
		return 0, fmt.Errorf("%w: empty path", models.ErrLocationNotFound)
	}

	roots, err := r.lookup.ListRootsByName(ctx, names[0])
	if err != nil {
		return 0, err
	}
	candidates := matchingIDs(roots, names[0], nil)

	for n := 1; n < len(names) && len(candidates) > 0; n++ {
		children, err := r.lookup.ListChildrenOfName(ctx, names[n-1])
		if err != nil {
			return 0, err
		}
		candidates = matchingIDs(children, names[n], candidates)
	}

	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrLocationNotFound, locationPath)
	}
	if len(candidates) > 1 {
		r.log.Warn("location path is ambiguous, using lowest id",
			"path", locationPath,
			"matches", len(candidates),
		)
	}

	return candidates[0], nil
}

// matchingIDs keeps rows named name whose parent is in parents (any parent
// when parents is nil). Rows arrive ordered by ID.
func matchingIDs(rows []models.ChildRow, name string, parents []int64) []int64 {
	var ids []int64
	for _, row := range rows {
		if row.DisplayName() != name {
			continue
		}
		if parents != nil && (row.ParentLocationID == nil || !slices.Contains(parents, *row.ParentLocationID)) {
			continue
		}
		ids = append(ids, row.LocationID)
	}
	return ids
}

// pathsOf reverses a leaf-to-root chain into root-to-leaf paths
func pathsOf(chain []models.LocationRef, complete bool) LocationPaths {
	paths := LocationPaths{
		IDs:      make([]int64, len(chain)),
		Names:    make([]string, len(chain)),
		Complete: complete,
	}
	for i, ref := range chain {
		j := len(chain) - 1 - i
		paths.IDs[j] = ref.LocationID
		paths.Names[j] = ref.Name
	}
	return paths
}
