package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ChildrenIDSeparator joins childrenIDs in the persisted record
	ChildrenIDSeparator = ","

	// IDPathSeparator joins the ancestor chain in locationIDPath
	IDPathSeparator = "$"

	// NamePathSeparator joins names in locationPath, tagPath and viewPath
	NamePathSeparator = "/"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrMalformedRow     = errors.New("malformed location row")
	ErrBrokenReference  = errors.New("parent reference does not resolve")
	ErrCycleDetected    = errors.New("location is its own ancestor")
)

// LocationRow is one row of the bulk location query.
// Maps to: Location joined with LocationType and LocationTypeDefinition
type LocationRow struct {
	LocationID               *int64     `db:"LocationID"`
	Name                     *string    `db:"Name"`
	OrderNumber              *int64     `db:"orderNumber"`
	ShortName                *string    `db:"shortName"`
	Description              *string    `db:"description"`
	Icon                     *string    `db:"icon"`
	ParentLocationID         *int64     `db:"ParentLocationID"`
	LocationType             *string    `db:"locationType"`
	LocationTypeID           *int64     `db:"LocationTypeID"`
	LocationTypeDefinition   *string    `db:"locationTypeDefinition"`
	LocationTypeDefinitionID *int64     `db:"LocationTypeDefinitionID"`
	UDTPath                  *string    `db:"UDTPath"`
	IgnitionTemplatePath     *string    `db:"IgnitionTemplatePath"`
	LastModifiedBy           *string    `db:"LastModifiedBy"`
	LastModifiedOn           *time.Time `db:"LastModifiedOn"`
}

// Validate reports ErrMalformedRow when a required column is NULL
func (r *LocationRow) Validate() error {
	if r.LocationID == nil {
		return fmt.Errorf("%w: LocationID is null", ErrMalformedRow)
	}
	if r.Name == nil || *r.Name == "" {
		return fmt.Errorf("%w: Name is empty for location %d", ErrMalformedRow, *r.LocationID)
	}
	return nil
}

// ChildRow is one row of the children-of-location query
type ChildRow struct {
	LocationID       int64   `db:"LocationID"`
	Name             *string `db:"Name"`
	OrderNumber      *int64  `db:"orderNumber"`
	ParentLocationID *int64  `db:"ParentLocationID"`
}

// DisplayName returns the name or "" when NULL
func (c ChildRow) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// LocationRef is the minimal row the path resolver walks
type LocationRef struct {
	LocationID int64
	ParentID   *int64
	Name       string
}

// HasParent treats a NULL or zero parent as a root
func (r LocationRef) HasParent() bool {
	return r.ParentID != nil && *r.ParentID != 0
}

// LocationRecord is one row of the location model snapshot.
// JSON names are the column names of the persisted model.
type LocationRecord struct {
	LocationName             string     `json:"locationName"`
	LocationID               int64      `json:"locationID"`
	OrderNumber              *int64     `json:"orderNumber"`
	ShortName                string     `json:"shortName"`
	Description              string     `json:"description"`
	Icon                     string     `json:"icon"`
	ParentID                 *int64     `json:"parentID"`
	ChildrenCount            int        `json:"childrenCount"`
	ChildrenIDs              string     `json:"childrenIDs"`
	LocationIDPath           string     `json:"locationIDPath"`
	LocationPath             string     `json:"locationPath"`
	TagPath                  string     `json:"tagPath"`
	ViewPath                 string     `json:"viewPath"`
	TreePath                 string     `json:"treePath"`
	LocationType             string     `json:"locationType"`
	LocationTypeID           *int64     `json:"locationTypeID"`
	LocationTypeDefinition   string     `json:"locationTypeDefinition"`
	LocationTypeDefinitionID *int64     `json:"locationTypeDefinitionID"`
	UDTPath                  string     `json:"udtPath"`
	ViewTemplatePath         string     `json:"viewTemplatePath"`
	LastModifiedBy           string     `json:"lastModifiedBy"`
	LastModifiedOn           *time.Time `json:"lastModifiedOn"`
}

// NewLocationRecord copies the passthrough columns of a validated row
func NewLocationRecord(row *LocationRow) LocationRecord {
	return LocationRecord{
		LocationName:             deref(row.Name),
		LocationID:               *row.LocationID,
		OrderNumber:              row.OrderNumber,
		ShortName:                deref(row.ShortName),
		Description:              deref(row.Description),
		Icon:                     deref(row.Icon),
		ParentID:                 row.ParentLocationID,
		LocationType:             deref(row.LocationType),
		LocationTypeID:           row.LocationTypeID,
		LocationTypeDefinition:   deref(row.LocationTypeDefinition),
		LocationTypeDefinitionID: row.LocationTypeDefinitionID,
		UDTPath:                  deref(row.UDTPath),
		ViewTemplatePath:         deref(row.IgnitionTemplatePath),
		LastModifiedBy:           deref(row.LastModifiedBy),
		LastModifiedOn:           row.LastModifiedOn,
	}
}

// HasParent treats a NULL or zero parent as a root
func (r *LocationRecord) HasParent() bool {
	return r.ParentID != nil && *r.ParentID != 0
}

// Children parses ChildrenIDs back into the sorted ID sequence
func (r *LocationRecord) Children() ([]int64, error) {
	return ParseChildrenIDs(r.ChildrenIDs)
}

// Details returns the record as a column-name keyed map.
// Nullable columns map to nil.
func (r *LocationRecord) Details() map[string]any {
	return map[string]any{
		"locationName":             r.LocationName,
		"locationID":               r.LocationID,
		"orderNumber":              ptrValue(r.OrderNumber),
		"shortName":                r.ShortName,
		"description":              r.Description,
		"icon":                     r.Icon,
		"parentID":                 ptrValue(r.ParentID),
		"childrenCount":            int64(r.ChildrenCount),
		"childrenIDs":              r.ChildrenIDs,
		"locationIDPath":           r.LocationIDPath,
		"locationPath":             r.LocationPath,
		"tagPath":                  r.TagPath,
		"viewPath":                 r.ViewPath,
		"treePath":                 r.TreePath,
		"locationType":             r.LocationType,
		"locationTypeID":           ptrValue(r.LocationTypeID),
		"locationTypeDefinition":   r.LocationTypeDefinition,
		"locationTypeDefinitionID": ptrValue(r.LocationTypeDefinitionID),
		"udtPath":                  r.UDTPath,
		"viewTemplatePath":         r.ViewTemplatePath,
		"lastModifiedBy":           r.LastModifiedBy,
		"lastModifiedOn":           timeValue(r.LastModifiedOn),
	}
}

// JoinChildrenIDs renders child IDs in the given order
func JoinChildrenIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ChildrenIDSeparator)
}

// ParseChildrenIDs is the inverse of JoinChildrenIDs. An empty string is no children.
func ParseChildrenIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ChildrenIDSeparator)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid child id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// JoinIDPath renders a root-to-node ID chain
func JoinIDPath(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, IDPathSeparator)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptrValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
