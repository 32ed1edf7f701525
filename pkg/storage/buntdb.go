// Package storage persists scan snapshots
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/tidwall/buntdb"
)

const sequenceIndex = "sequence_index"

// BuntStorage keeps snapshots in a BuntDB database keyed by scan number. BuntDB holds
// the whole dataset in memory, so long-running callers should bound it with WithMaxSnapshots.
type BuntStorage struct {
	db           *buntdb.DB
	maxSnapshots int
}

// BuntOption configures a BuntStorage
type BuntOption func(*BuntStorage)

// WithMaxSnapshots keeps only the latest limit snapshots, evicting the oldest on Save.
// Zero keeps everything.
func WithMaxSnapshots(limit int) BuntOption {
	return func(b *BuntStorage) {
		b.maxSnapshots = limit
	}
}

// FromMemory creates an in-memory storage
func FromMemory(options ...BuntOption) (*BuntStorage, error) {
	return NewBuntStorage(":memory:", options...)
}

// FromFile creates a file-based storage
func FromFile(file string, options ...BuntOption) (*BuntStorage, error) {
	return NewBuntStorage(file, options...)
}

// NewBuntStorage opens path, ":memory:" included, and indexes snapshots by scan number
func NewBuntStorage(path string, options ...BuntOption) (*BuntStorage, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.CreateIndex(sequenceIndex, "snapshot:*", buntdb.IndexJSON("scan_number")); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	storage := &BuntStorage{db: db}
	for _, option := range options {
		option(storage)
	}

	return storage, nil
}

func snapshotKey(sequence int64) string {
	return fmt.Sprintf("snapshot:%020d", sequence)
}

// Save stores snapshot, replacing any earlier snapshot with the same scan number
func (b *BuntStorage) Save(ctx context.Context, snapshot core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(snapshotKey(snapshot.Sequence), string(content), nil); err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		return b.evict(tx)
	})
}

// evict drops the oldest snapshots above maxSnapshots
func (b *BuntStorage) evict(tx *buntdb.Tx) error {
	if b.maxSnapshots <= 0 {
		return nil
	}

	total, err := tx.Len()
	if err != nil {
		return fmt.Errorf("failed to count snapshots: %w", err)
	}

	excess := total - b.maxSnapshots
	if excess <= 0 {
		return nil
	}

	stale := make([]string, 0, excess)
	err = tx.Ascend(sequenceIndex, func(key, _ string) bool {
		stale = append(stale, key)
		return len(stale) < excess
	})
	if err != nil {
		return fmt.Errorf("failed to iterate over snapshots: %w", err)
	}

	for _, key := range stale {
		if _, err := tx.Delete(key); err != nil {
			return fmt.Errorf("failed to evict snapshot %s: %w", key, err)
		}
	}
	return nil
}

// Snapshots returns the stored snapshots in scan order
func (b *BuntStorage) Snapshots(filters ...core.SnapshotFilter) ([]*core.Snapshot, error) {
	snapshots := make([]*core.Snapshot, 0)

	var decodeErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(sequenceIndex, func(key, value string) bool {
			var snapshot core.Snapshot
			if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal snapshot %s: %w", key, err)
				return false
			}

			if matches(snapshot, filters) {
				snapshots = append(snapshots, &snapshot)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over snapshots: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	return snapshots, nil
}

func (b *BuntStorage) Close() error {
	return b.db.Close()
}

func matches(snapshot core.Snapshot, filters []core.SnapshotFilter) bool {
	for _, filter := range filters {
		if !filter(snapshot) {
			return false
		}
	}
	return true
}

var _ core.SnapshotStorage = (*BuntStorage)(nil)
