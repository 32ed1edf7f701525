package core

import (
	"context"
	"time"
)

// Source yields one batch of normalized records per call. A source that cannot be
// reached returns an error and no records; the scan carries on with the other sources.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]TokenRecord, error)
}

// Notifier delivers a rendered alert to a chat
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// NotifierWithStart is a notifier that must verify its identity before use
type NotifierWithStart interface {
	Notifier
	Start(ctx context.Context) error
}

// Snapshot is the persisted view of one scan
type Snapshot struct {
	Sequence  int64         `json:"scan_number"`
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Count     int           `json:"total_tokens"`
	Tokens    []TokenRecord `json:"tokens"`
}

// SnapshotStorage persists the normalized batch of each scan
type SnapshotStorage interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Snapshots(filters ...SnapshotFilter) ([]*Snapshot, error)
	Close() error
}

// SnapshotFilter selects snapshots when reading them back
type SnapshotFilter func(snapshot Snapshot) bool

// WithSequenceAfter keeps snapshots newer than the given scan number
func WithSequenceAfter(sequence int64) SnapshotFilter {
	return func(snapshot Snapshot) bool {
		return snapshot.Sequence > sequence
	}
}

// WithTimestampAfterOrEqual keeps snapshots taken at or after t
func WithTimestampAfterOrEqual(t time.Time) SnapshotFilter {
	return func(snapshot Snapshot) bool {
		return !snapshot.Timestamp.Before(t)
	}
}

// Clock returns the current time. Components take a Clock so tests can pin it.
type Clock func() time.Time
