package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelpipe/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// RedisStore persists items, artifacts, source cursors and curation settings.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

const (
	fingerprintsKey = "curation:items"
	pendingGenKey   = "curation:items:pending_generation"
	artifactsKey    = "curation:artifacts"
	settingsKey     = "curation:settings"
)

func itemKey(fp string) string {
	return "curation:item:" + fp
}

func cursorKey(sourceID string) string {
	// Source IDs contain URLs; hash them so keys stay flat.
	return "curation:cursor:" + model.Fingerprint(sourceID, "", "")
}

func artifactKey(id string) string {
	return "curation:artifact:" + id
}

func artifactsByItemKey(fp string) string {
	return "curation:artifacts:item:" + fp
}

// HasItem reports whether an item with the given fingerprint is already stored.
func (s *RedisStore) HasItem(ctx context.Context, fp string) (bool, error) {
	return s.rdb.SIsMember(ctx, fingerprintsKey, fp).Result()
}

// PutItem stores an item and maintains the fingerprint index and the
// pending-generation index in the same transaction.
func (s *RedisStore) PutItem(ctx context.Context, item model.CanonicalItem) error {
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, itemKey(item.ID), b, 0)
	pipe.SAdd(ctx, fingerprintsKey, item.ID)
	if item.HumanApproved && !item.ArtifactsGenerated {
		pipe.SAdd(ctx, pendingGenKey, item.ID)
	} else {
		pipe.SRem(ctx, pendingGenKey, item.ID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetItem loads one item by fingerprint.
func (s *RedisStore) GetItem(ctx context.Context, fp string) (model.CanonicalItem, error) {
	var item model.CanonicalItem
	b, err := s.rdb.Get(ctx, itemKey(fp)).Bytes()
	if err == redis.Nil {
		return item, ErrNotFound
	}
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(b, &item); err != nil {
		return item, err
	}
	return item, nil
}

// UpdateItem applies mutate to a stored item and writes it back, keeping
// indexes consistent. Single-writer-per-record is assumed; no optimistic
// locking beyond the write transaction.
func (s *RedisStore) UpdateItem(ctx context.Context, fp string, mutate func(*model.CanonicalItem) error) error {
	item, err := s.GetItem(ctx, fp)
	if err != nil {
		return err
	}
	if err := mutate(&item); err != nil {
		return err
	}
	if item.ID != fp {
		return fmt.Errorf("storage: item id is immutable")
	}
	return s.PutItem(ctx, item)
}

// ListItems returns all stored items.
func (s *RedisStore) ListItems(ctx context.Context) ([]model.CanonicalItem, error) {
	fps, err := s.rdb.SMembers(ctx, fingerprintsKey).Result()
	if err != nil {
		return nil, err
	}
	return s.items(ctx, fps)
}

// PendingGeneration returns items with human_approved set and no artifacts yet.
func (s *RedisStore) PendingGeneration(ctx context.Context) ([]model.CanonicalItem, error) {
	fps, err := s.rdb.SMembers(ctx, pendingGenKey).Result()
	if err != nil {
		return nil, err
	}
	return s.items(ctx, fps)
}

func (s *RedisStore) items(ctx context.Context, fps []string) ([]model.CanonicalItem, error) {
	out := make([]model.CanonicalItem, 0, len(fps))
	for _, fp := range fps {
		item, err := s.GetItem(ctx, fp)
		if err == ErrNotFound {
			continue // index ahead of data; skip
		}
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Cursor returns the watermark for a source, zero time when none exists.
func (s *RedisStore) Cursor(ctx context.Context, sourceID string) (time.Time, error) {
	raw, err := s.rdb.HGet(ctx, cursorKey(sourceID), "last_processed").Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// AdvanceCursor moves a source's watermark forward to ts and bumps the
// processed counter. A ts at or before the current watermark is a no-op,
// so the watermark never regresses.
func (s *RedisStore) AdvanceCursor(ctx context.Context, sourceID string, ts time.Time, processed int) error {
	cur, err := s.Cursor(ctx, sourceID)
	if err != nil {
		return err
	}
	key := cursorKey(sourceID)
	pipe := s.rdb.TxPipeline()
	if ts.After(cur) {
		pipe.HSet(ctx, key, "source_id", sourceID, "last_processed", ts.UTC().Format(time.RFC3339Nano))
	} else {
		pipe.HSetNX(ctx, key, "source_id", sourceID)
	}
	if processed > 0 {
		pipe.HIncrBy(ctx, key, "total_items_processed", int64(processed))
	}
	pipe.HSet(ctx, key, "last_updated", time.Now().UTC().Format(time.RFC3339Nano))
	_, err = pipe.Exec(ctx)
	return err
}

// PutArtifactBatch persists a full generation batch and flips the parent's
// artifacts_generated flag in one transaction. Callers must pass the parent
// with the flag already validated; partial batches are never written.
func (s *RedisStore) PutArtifactBatch(ctx context.Context, parent model.CanonicalItem, artifacts []model.Artifact) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("storage: empty artifact batch for item %s", parent.ID)
	}
	parent.ArtifactsGenerated = true
	pb, err := json.Marshal(parent)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	for _, a := range artifacts {
		ab, err := json.Marshal(a)
		if err != nil {
			return err
		}
		pipe.Set(ctx, artifactKey(a.ID), ab, 0)
		pipe.SAdd(ctx, artifactsKey, a.ID)
		pipe.SAdd(ctx, artifactsByItemKey(parent.ID), a.ID)
	}
	pipe.Set(ctx, itemKey(parent.ID), pb, 0)
	pipe.SRem(ctx, pendingGenKey, parent.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// GetArtifact loads one artifact by id.
func (s *RedisStore) GetArtifact(ctx context.Context, id string) (model.Artifact, error) {
	var a model.Artifact
	b, err := s.rdb.Get(ctx, artifactKey(id)).Bytes()
	if err == redis.Nil {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return a, err
	}
	return a, nil
}

// PutArtifact overwrites one artifact. Used for operator-driven status and
// approval updates only; creation always goes through PutArtifactBatch.
func (s *RedisStore) PutArtifact(ctx context.Context, a model.Artifact) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, artifactKey(a.ID), b, 0).Err()
}

// ListArtifacts returns all stored artifacts.
func (s *RedisStore) ListArtifacts(ctx context.Context) ([]model.Artifact, error) {
	ids, err := s.rdb.SMembers(ctx, artifactsKey).Result()
	if err != nil {
		return nil, err
	}
	return s.artifacts(ctx, ids)
}

// ArtifactsForItem returns the artifacts generated from one item.
func (s *RedisStore) ArtifactsForItem(ctx context.Context, fp string) ([]model.Artifact, error) {
	ids, err := s.rdb.SMembers(ctx, artifactsByItemKey(fp)).Result()
	if err != nil {
		return nil, err
	}
	return s.artifacts(ctx, ids)
}

func (s *RedisStore) artifacts(ctx context.Context, ids []string) ([]model.Artifact, error) {
	out := make([]model.Artifact, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetArtifact(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Settings returns the settings collection as a flat hash.
func (s *RedisStore) Settings(ctx context.Context) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, settingsKey).Result()
}

// PutSettings writes fields into the settings collection, leaving other
// fields untouched.
func (s *RedisStore) PutSettings(ctx context.Context, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return s.rdb.HSet(ctx, settingsKey, args...).Err()
}
