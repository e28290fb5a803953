package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the flattened location model produced by one build.
// Records keep build order; the index maps locationID to position.
type Snapshot struct {
	BuildID uuid.UUID        `json:"buildID"`
	BuiltAt time.Time        `json:"builtAt"`
	Skipped int              `json:"skipped"`
	Records []LocationRecord `json:"records"`

	index map[int64]int
}

// NewSnapshot indexes records. When an ID repeats, the first record wins
// and the duplicates are dropped.
func NewSnapshot(buildID uuid.UUID, records []LocationRecord) *Snapshot {
	s := &Snapshot{
		BuildID: buildID,
		BuiltAt: time.Now().UTC(),
		Records: records,
	}
	s.Reindex()
	return s
}

// Reindex rebuilds the ID index from Records, dropping duplicate IDs
func (s *Snapshot) Reindex() {
	s.index = make(map[int64]int, len(s.Records))
	kept := s.Records[:0]
	for _, rec := range s.Records {
		if _, dup := s.index[rec.LocationID]; dup {
			continue
		}
		s.index[rec.LocationID] = len(kept)
		kept = append(kept, rec)
	}
	s.Records = kept
}

// Len returns the number of records
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Record returns the record for locationID. The pointer aliases the
// snapshot row; callers outside the build must not mutate it.
func (s *Snapshot) Record(locationID int64) (*LocationRecord, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[locationID]
	if !ok {
		return nil, false
	}
	return &s.Records[i], true
}

// Details returns the column map for locationID, or an empty map when
// the location is not in the snapshot.
func (s *Snapshot) Details(locationID int64) map[string]any {
	rec, ok := s.Record(locationID)
	if !ok {
		return map[string]any{}
	}
	return rec.Details()
}

// UnmarshalJSON decodes a persisted snapshot and restores the index
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Snapshot(p)
	s.Reindex()
	return nil
}
