package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/awschultz/locationmodel/common/models"
	"github.com/awschultz/locationmodel/common/redis"
)

// fakeLocations is an in-memory location table serving both the builder
// and the path resolver
type fakeLocations struct {
	rows        []models.LocationRow
	listErr     error
	childrenErr map[int64]error

	// childrenErrOnce fails only the next children query for an ID
	childrenErrOnce map[int64]error
}

func newFakeLocations(rows ...models.LocationRow) *fakeLocations {
	return &fakeLocations{
		rows:            rows,
		childrenErr:     map[int64]error{},
		childrenErrOnce: map[int64]error{},
	}
}

func (f *fakeLocations) ListLocations(ctx context.Context) ([]models.LocationRow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.LocationRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeLocations) ListChildren(ctx context.Context, parentID int64) ([]models.ChildRow, error) {
	if err := f.childrenErr[parentID]; err != nil {
		return nil, err
	}
	if err := f.childrenErrOnce[parentID]; err != nil {
		delete(f.childrenErrOnce, parentID)
		return nil, err
	}
	var out []models.ChildRow
	for _, row := range f.rows {
		if row.LocationID != nil && row.ParentLocationID != nil && *row.ParentLocationID == parentID {
			out = append(out, childRowOf(row))
		}
	}
	return out, nil
}

func (f *fakeLocations) GetByID(ctx context.Context, locationID int64) (*models.LocationRef, error) {
	for _, row := range f.rows {
		if row.LocationID != nil && *row.LocationID == locationID {
			ref := &models.LocationRef{LocationID: locationID, ParentID: row.ParentLocationID}
			if row.Name != nil {
				ref.Name = *row.Name
			}
			return ref, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", models.ErrLocationNotFound, locationID)
}

func (f *fakeLocations) ListChildrenOfName(ctx context.Context, parentName string) ([]models.ChildRow, error) {
	parents := map[int64]bool{}
	for _, row := range f.rows {
		if row.LocationID != nil && row.Name != nil && *row.Name == parentName {
			parents[*row.LocationID] = true
		}
	}
	var out []models.ChildRow
	for _, row := range f.rows {
		if row.LocationID != nil && row.ParentLocationID != nil && parents[*row.ParentLocationID] {
			out = append(out, childRowOf(row))
		}
	}
	return out, nil
}

func (f *fakeLocations) ListRootsByName(ctx context.Context, name string) ([]models.ChildRow, error) {
	var out []models.ChildRow
	for _, row := range f.rows {
		if row.LocationID == nil || row.Name == nil || *row.Name != name {
			continue
		}
		if row.ParentLocationID != nil && *row.ParentLocationID != 0 {
			continue
		}
		out = append(out, childRowOf(row))
	}
	return out, nil
}

func childRowOf(row models.LocationRow) models.ChildRow {
	return models.ChildRow{
		LocationID:       *row.LocationID,
		Name:             row.Name,
		OrderNumber:      row.OrderNumber,
		ParentLocationID: row.ParentLocationID,
	}
}

// locationRow builds a source row; parent and order of 0 mean NULL
func locationRow(id int64, name string, parent, order int64) models.LocationRow {
	row := models.LocationRow{
		LocationID:   &id,
		Name:         &name,
		LocationType: strPtr("Area"),
	}
	if parent != 0 {
		row.ParentLocationID = &parent
	}
	if order != 0 {
		row.OrderNumber = &order
	}
	return row
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// record builds a snapshot record with the given children in order
func record(id, parent int64, name string, children ...int64) models.LocationRecord {
	rec := models.LocationRecord{
		LocationID:    id,
		LocationName:  name,
		ChildrenCount: len(children),
		ChildrenIDs:   models.JoinChildrenIDs(children),
	}
	if parent != 0 {
		rec.ParentID = int64Ptr(parent)
	}
	return rec
}

// fakeTagBrowser serves entries keyed by "path|kind"
type fakeTagBrowser struct {
	entries map[string][]models.TagEntry
	errs    map[string]error
	calls   []string
}

func (f *fakeTagBrowser) add(path string, entries ...models.TagEntry) {
	if f.entries == nil {
		f.entries = map[string][]models.TagEntry{}
	}
	f.entries[path] = append(f.entries[path], entries...)
}

func (f *fakeTagBrowser) Browse(ctx context.Context, path string, kind models.TagKind) ([]models.TagEntry, error) {
	f.calls = append(f.calls, path+"|"+string(kind))
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	var out []models.TagEntry
	for _, e := range f.entries[path] {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func udt(parent, name, typeID string) models.TagEntry {
	return models.TagEntry{Name: name, FullPath: JoinTagPath(parent, name), Kind: models.TagKindUdtInstance, TypeID: typeID}
}

func folder(parent, name string) models.TagEntry {
	return models.TagEntry{Name: name, FullPath: JoinTagPath(parent, name), Kind: models.TagKindFolder}
}

// fakeKV is an in-memory stand-in for the redis client
type fakeKV struct {
	mu       sync.Mutex
	values   map[string]string
	hashes   map[string]map[string]string
	setErr   error
	expiries map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values:   map[string]string{},
		hashes:   map[string]map[string]string{},
		expiries: map[string]time.Duration{},
	}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", redis.ErrKeyNotFound, key)
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.expiries[key] = expiry
	return nil
}

func (f *fakeKV) GetAllHash(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeKV) ReplaceHashes(ctx context.Context, hashes map[string]map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, fields := range hashes {
		f.hashes[key] = fields
	}
	return nil
}

func (f *fakeKV) hashKeys() []string {
	var keys []string
	for k := range f.hashes {
		keys = append(keys, k)
	}
	return keys
}

func labels(nodes []*models.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func flatten(nodes []*models.TreeNode) string {
	var parts []string
	for _, n := range nodes {
		n.Walk(func(node *models.TreeNode) { parts = append(parts, node.Label) })
	}
	return strings.Join(parts, ",")
}
