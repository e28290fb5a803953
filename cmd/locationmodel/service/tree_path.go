package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
)

// RootTreePath is the tree path of every root location
const RootTreePath = "0"

// treePathResolver computes sibling-index paths from the childrenIDs
// already in a snapshot, memoizing resolved paths.
type treePathResolver struct {
	snapshot *models.Snapshot
	memo     map[int64]string
	visiting map[int64]bool
}

func newTreePathResolver(snapshot *models.Snapshot) *treePathResolver {
	return &treePathResolver{
		snapshot: snapshot,
		memo:     make(map[int64]string, snapshot.Len()),
		visiting: make(map[int64]bool),
	}
}

// AnnotateTreePaths sets TreePath on every record of snapshot in place and
// returns how many records were left blank because their ancestry is
// broken or cyclic.
func AnnotateTreePaths(snapshot *models.Snapshot, log *logger.Logger) int {
	resolver := newTreePathResolver(snapshot)
	unresolved := 0

	for i := range snapshot.Records {
		rec := &snapshot.Records[i]
		path, err := resolver.resolve(rec.LocationID)
		if err != nil {
			log.Warn("tree path unresolvable", "location_id", rec.LocationID, "error", err)
			degradedPaths.WithLabelValues("tree", reasonOf(err)).Inc()
			unresolved++
			rec.TreePath = ""
			continue
		}
		rec.TreePath = path
	}

	return unresolved
}

// TreePath computes the tree path of a single location in snapshot
func TreePath(snapshot *models.Snapshot, locationID int64) (string, error) {
	return newTreePathResolver(snapshot).resolve(locationID)
}

func (t *treePathResolver) resolve(locationID int64) (string, error) {
	if path, ok := t.memo[locationID]; ok {
		return path, nil
	}

	rec, ok := t.snapshot.Record(locationID)
	if !ok {
		return "", fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
	}

	if !rec.HasParent() {
		t.memo[locationID] = RootTreePath
		return RootTreePath, nil
	}

	if t.visiting[locationID] {
		return "", fmt.Errorf("%w: %d", models.ErrCycleDetected, locationID)
	}
	t.visiting[locationID] = true
	defer delete(t.visiting, locationID)

	parentID := *rec.ParentID
	parent, ok := t.snapshot.Record(parentID)
	if !ok {
		return "", fmt.Errorf("%w: parent %d of %d", models.ErrBrokenReference, parentID, locationID)
	}

	parentPath, err := t.resolve(parentID)
	if err != nil {
		return "", err
	}

	path := parentPath + models.NamePathSeparator + strconv.Itoa(siblingIndex(parent, locationID))
	t.memo[locationID] = path
	return path, nil
}

// siblingIndex is the position of locationID in the parent's childrenIDs.
// A child missing from the list, or an unparsable list, yields 0.
func siblingIndex(parent *models.LocationRecord, locationID int64) int {
	siblings, err := parent.Children()
	if err != nil {
		return 0
	}
	if i := slices.Index(siblings, locationID); i >= 0 {
		return i
	}
	return 0
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, models.ErrCycleDetected):
		return "cycle"
	case errors.Is(err, models.ErrBrokenReference):
		return "broken_reference"
	default:
		return "not_found"
	}
}
