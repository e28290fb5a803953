package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/awschultz/locationmodel/common/redis"
)

// ErrSnapshotNotFound is returned when no snapshot has been persisted yet
var ErrSnapshotNotFound = errors.New("location model snapshot not found")

// SnapshotStore persists whole snapshots
type SnapshotStore interface {
	Write(ctx context.Context, snapshot *models.Snapshot) error
	Read(ctx context.Context) (*models.Snapshot, error)
}

// KeyValueStore is the subset of the redis client the snapshot store uses
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiry time.Duration) error
}

// RedisSnapshotStore keeps the latest snapshot as one JSON document.
// Every write overwrites the previous snapshot in full.
type RedisSnapshotStore struct {
	kv  KeyValueStore
	key string
	log *logger.Logger
}

// NewRedisSnapshotStore creates a snapshot store writing to key
func NewRedisSnapshotStore(kv KeyValueStore, key string, log *logger.Logger) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		kv:  kv,
		key: key,
		log: log,
	}
}

// Write replaces the persisted snapshot
func (s *RedisSnapshotStore) Write(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, string(data), 0); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.log.Info("snapshot persisted",
		"key", s.key,
		"build_id", snapshot.BuildID.String(),
		"records", snapshot.Len(),
		"bytes", len(data),
	)

	return nil
}

// Read loads and re-indexes the persisted snapshot
func (s *RedisSnapshotStore) Read(ctx context.Context) (*models.Snapshot, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
