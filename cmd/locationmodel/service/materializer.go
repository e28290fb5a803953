package service

import (
	"time"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
)

// FilterFunc decides whether a location matches, given its column map
type FilterFunc func(details map[string]any) bool

// TransformFunc rewrites a node before it is attached to its parent.
// It may relabel or annotate the node but must not change Items.
type TransformFunc func(node *models.TreeNode) *models.TreeNode

// AcceptAll is the default filter
func AcceptAll(map[string]any) bool { return true }

// Identity is the default transform
func Identity(node *models.TreeNode) *models.TreeNode { return node }

// TreeOptions configures one materialization
type TreeOptions struct {
	Expanded  bool
	Filter    FilterFunc
	Transform TransformFunc
}

func (o TreeOptions) withDefaults() TreeOptions {
	if o.Filter == nil {
		o.Filter = AcceptAll
	}
	if o.Transform == nil {
		o.Transform = Identity
	}
	return o
}

// TreeMaterializer turns a flattened snapshot into nested tree nodes
type TreeMaterializer struct {
	log *logger.Logger
}

// NewTreeMaterializer creates a new tree materializer
func NewTreeMaterializer(log *logger.Logger) *TreeMaterializer {
	return &TreeMaterializer{
		log: log,
	}
}

// Materialize builds the subtree rooted at locationID.
//
// Children are materialized first. A child subtree is attached only when it
// kept itself, so a node stays in the tree when it matches the filter or any
// of its descendants does. The requested node is always returned as the
// single element of Items, with KeepMe telling the caller whether it matched.
// An unknown locationID yields no items.
func (m *TreeMaterializer) Materialize(snapshot *models.Snapshot, locationID int64, opts TreeOptions) models.TreeResult {
	start := time.Now()
	defer func() { materializeDuration.Observe(time.Since(start).Seconds()) }()

	opts = opts.withDefaults()

	result, ok := m.materialize(snapshot, locationID, opts, make(map[int64]bool))
	if !ok {
		m.log.Debug("materialize: location not in snapshot", "location_id", locationID)
		return models.TreeResult{Items: []*models.TreeNode{}}
	}
	return result
}

// ancestors holds the IDs on the current descent so a cyclic childrenIDs
// list ends the branch instead of recursing forever.
func (m *TreeMaterializer) materialize(snapshot *models.Snapshot, locationID int64, opts TreeOptions, ancestors map[int64]bool) (models.TreeResult, bool) {
	rec, ok := snapshot.Record(locationID)
	if !ok {
		return models.TreeResult{}, false
	}

	details := rec.Details()
	items := []*models.TreeNode{}
	keepMe := false

	if rec.ChildrenCount > 0 {
		childIDs, err := rec.Children()
		if err != nil {
			m.log.Warn("materialize: unreadable childrenIDs", "location_id", locationID, "error", err)
		}

		ancestors[locationID] = true
		for _, childID := range childIDs {
			if ancestors[childID] {
				m.log.Warn("materialize: cycle in childrenIDs", "location_id", locationID, "child_id", childID)
				continue
			}

			sub, found := m.materialize(snapshot, childID, opts, ancestors)
			if !found {
				m.log.Warn("materialize: child missing from snapshot", "location_id", locationID, "child_id", childID)
				continue
			}
			if sub.KeepMe {
				keepMe = true
				items = append(items, sub.Items...)
			}
		}
		delete(ancestors, locationID)
	}

	if opts.Filter(details) {
		keepMe = true
	}

	node := &models.TreeNode{
		Label:    rec.LocationName,
		Data:     details,
		Expanded: opts.Expanded,
		Items:    items,
	}
	if transformed := opts.Transform(node); transformed != nil {
		node = transformed
	}

	return models.TreeResult{KeepMe: keepMe, Items: []*models.TreeNode{node}}, true
}
