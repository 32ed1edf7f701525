package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/samber/lo"
)

const fileTimestampLayout = "2006-01-02 15:04:05"

type scanInfo struct {
	ScanNumber  int64  `json:"scan_number"`
	RunID       string `json:"run_id,omitempty"`
	Timestamp   string `json:"timestamp"`
	TotalTokens int    `json:"total_tokens"`
}

// fileToken adds the fields derived at snapshot time
type fileToken struct {
	core.TokenRecord
	AgeHours       *float64 `json:"age_hours"`
	DexscreenerURL string   `json:"dexscreener_url"`
}

type scanFile struct {
	ScanInfo scanInfo    `json:"scan_info"`
	Tokens   []fileToken `json:"tokens"`
}

// FileStorage overwrites a single JSON document with the latest snapshot
type FileStorage struct {
	path     string
	location *time.Location
}

// FromJSONFile creates a storage writing to path. Timestamps are written in local time.
func FromJSONFile(path string) *FileStorage {
	return &FileStorage{path: path, location: time.Local}
}

// Save replaces the file content atomically
func (f *FileStorage) Save(ctx context.Context, snapshot core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tokens := lo.Map(snapshot.Tokens, func(record core.TokenRecord, _ int) fileToken {
		token := fileToken{TokenRecord: record, DexscreenerURL: record.URL}
		if age, known := record.AgeHours(snapshot.Timestamp); known {
			token.AgeHours = &age
		}
		return token
	})

	content, err := json.MarshalIndent(scanFile{
		ScanInfo: scanInfo{
			ScanNumber:  snapshot.Sequence,
			RunID:       snapshot.RunID,
			Timestamp:   snapshot.Timestamp.In(f.location).Format(fileTimestampLayout),
			TotalTokens: snapshot.Count,
		},
		Tokens: tokens,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	return nil
}

// Snapshots returns the latest snapshot, if any was written
func (f *FileStorage) Snapshots(filters ...core.SnapshotFilter) ([]*core.Snapshot, error) {
	content, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*core.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var file scanFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot file: %w", err)
	}

	timestamp, err := time.ParseInLocation(fileTimestampLayout, file.ScanInfo.Timestamp, f.location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}

	snapshot := core.Snapshot{
		Sequence:  file.ScanInfo.ScanNumber,
		RunID:     file.ScanInfo.RunID,
		Timestamp: timestamp,
		Count:     file.ScanInfo.TotalTokens,
		Tokens: lo.Map(file.Tokens, func(token fileToken, _ int) core.TokenRecord {
			return token.TokenRecord
		}),
	}

	if !matches(snapshot, filters) {
		return []*core.Snapshot{}, nil
	}

	return []*core.Snapshot{&snapshot}, nil
}

func (f *FileStorage) Close() error {
	return nil
}

var _ core.SnapshotStorage = (*FileStorage)(nil)
