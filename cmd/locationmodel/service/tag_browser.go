package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
)

// TagHashStore is the subset of the redis client the tag namespace uses
type TagHashStore interface {
	GetAllHash(ctx context.Context, key string) (map[string]string, error)
	ReplaceHashes(ctx context.Context, hashes map[string]map[string]string) error
}

// tagField is the hash value stored for one child entry
type tagField struct {
	TagType models.TagKind `json:"tagType"`
	TypeID  string         `json:"typeId,omitempty"`
}

// RedisTagBrowser serves a tag namespace kept in Redis.
// Each folder is one hash at "<prefix>:<path>" mapping child name to its
// kind and type.
type RedisTagBrowser struct {
	store  TagHashStore
	prefix string
	log    *logger.Logger
}

// NewRedisTagBrowser creates a new Redis-backed tag browser
func NewRedisTagBrowser(store TagHashStore, prefix string, log *logger.Logger) *RedisTagBrowser {
	return &RedisTagBrowser{
		store:  store,
		prefix: prefix,
		log:    log,
	}
}

// Browse lists the immediate children of path ordered by name.
// An unknown path has no children.
func (b *RedisTagBrowser) Browse(ctx context.Context, path string, kind models.TagKind) ([]models.TagEntry, error) {
	fields, err := b.store.GetAllHash(ctx, b.key(path))
	if err != nil {
		return nil, fmt.Errorf("failed to browse tag path %s: %w", path, err)
	}

	entries := make([]models.TagEntry, 0, len(fields))
	for name, raw := range fields {
		var field tagField
		if err := json.Unmarshal([]byte(raw), &field); err != nil {
			b.log.Warn("skipping unreadable tag entry", "path", path, "name", name, "error", err)
			continue
		}
		if kind != "" && field.TagType != kind {
			continue
		}
		entries = append(entries, models.TagEntry{
			Name:     name,
			FullPath: JoinTagPath(path, name),
			Kind:     field.TagType,
			TypeID:   field.TypeID,
		})
	}

	slices.SortFunc(entries, func(a, c models.TagEntry) int {
		return strings.Compare(a.Name, c.Name)
	})

	return entries, nil
}

// Import replaces the folders of an exported tag tree rooted at rootPath.
// Folders absent from the export are left untouched.
func (b *RedisTagBrowser) Import(ctx context.Context, rootPath string, tags []models.TagDefinition) (int, error) {
	hashes := make(map[string]map[string]string)
	if err := b.collect(rootPath, tags, hashes); err != nil {
		return 0, err
	}

	if err := b.store.ReplaceHashes(ctx, hashes); err != nil {
		return 0, fmt.Errorf("failed to import tags under %s: %w", rootPath, err)
	}

	b.log.Info("tag namespace imported", "path", rootPath, "folders", len(hashes))

	return len(hashes), nil
}

func (b *RedisTagBrowser) collect(path string, tags []models.TagDefinition, hashes map[string]map[string]string) error {
	fields := make(map[string]string, len(tags))
	for _, tag := range tags {
		if tag.Name == "" {
			return fmt.Errorf("tag under %s has no name", path)
		}

		raw, err := json.Marshal(tagField{TagType: tag.TagType, TypeID: tag.TypeID})
		if err != nil {
			return fmt.Errorf("failed to encode tag %s: %w", tag.Name, err)
		}
		fields[tag.Name] = string(raw)

		if tag.TagType == models.TagKindFolder || len(tag.Tags) > 0 {
			if err := b.collect(JoinTagPath(path, tag.Name), tag.Tags, hashes); err != nil {
				return err
			}
		}
	}
	hashes[b.key(path)] = fields
	return nil
}

func (b *RedisTagBrowser) key(path string) string {
	return b.prefix + ":" + path
}

// JoinTagPath appends name to a tag path. A bare provider such as
// "[default]" takes the name without a separator.
func JoinTagPath(path, name string) string {
	if path == "" || strings.HasSuffix(path, "]") || strings.HasSuffix(path, models.NamePathSeparator) {
		return path + name
	}
	return path + models.NamePathSeparator + name
}
