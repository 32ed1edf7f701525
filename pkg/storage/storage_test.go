package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/stretchr/testify/require"
)

func snapshot(sequence int64, at time.Time, addresses ...string) core.Snapshot {
	tokens := make([]core.TokenRecord, 0, len(addresses))
	for _, address := range addresses {
		tokens = append(tokens, core.TokenRecord{
			Address:   address,
			Symbol:    "SYM" + address,
			MarketCap: 100_000,
			Volume5m:  120_000,
			CreatedAt: at.Add(-time.Hour).UnixMilli(),
			Source:    "sol_pairs",
			Platform:  "dexscreener",
		})
	}

	return core.Snapshot{
		Sequence:  sequence,
		RunID:     fmt.Sprintf("run-%d", sequence),
		Timestamp: at,
		Count:     len(tokens),
		Tokens:    tokens,
	}
}

func TestBuntStorage(t *testing.T) {
	storage, err := FromMemory()
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	base := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	// stored out of order, read back by scan number
	require.NoError(t, storage.Save(ctx, snapshot(10, base.Add(9*time.Minute), "C")))
	require.NoError(t, storage.Save(ctx, snapshot(2, base.Add(time.Minute), "A", "B")))
	require.NoError(t, storage.Save(ctx, snapshot(1, base)))

	snapshots, err := storage.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	require.Equal(t, int64(1), snapshots[0].Sequence)
	require.Equal(t, int64(2), snapshots[1].Sequence)
	require.Equal(t, int64(10), snapshots[2].Sequence)
	require.Equal(t, []string{"A", "B"}, []string{snapshots[1].Tokens[0].Address, snapshots[1].Tokens[1].Address})
	require.True(t, snapshots[1].Timestamp.Equal(base.Add(time.Minute)))

	filtered, err := storage.Snapshots(core.WithSequenceAfter(1), core.WithTimestampAfterOrEqual(base.Add(5*time.Minute)))
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, int64(10), filtered[0].Sequence)
}

func TestBuntStorage_MaxSnapshots(t *testing.T) {
	storage, err := FromMemory(WithMaxSnapshots(3))
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	base := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	// one simulated day at a 60s interval
	for sequence := int64(1); sequence <= 1440; sequence++ {
		require.NoError(t, storage.Save(ctx, snapshot(sequence, base.Add(time.Duration(sequence)*time.Minute), "A", "B")))
	}

	snapshots, err := storage.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	require.Equal(t, int64(1438), snapshots[0].Sequence)
	require.Equal(t, int64(1440), snapshots[2].Sequence)

	// rewriting a kept scan number does not evict anything
	require.NoError(t, storage.Save(ctx, snapshot(1440, base, "C")))
	snapshots, err = storage.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	require.Equal(t, "C", snapshots[2].Tokens[0].Address)
}

func TestBuntStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dexscout.db")
	ctx := context.Background()

	storage, err := FromFile(path)
	require.NoError(t, err)
	require.NoError(t, storage.Save(ctx, snapshot(1, time.Now(), "A")))
	require.NoError(t, storage.Close())

	reopened, err := FromFile(path)
	require.NoError(t, err)
	defer reopened.Close()

	snapshots, err := reopened.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
}

func TestBuntStorage_CancelledContext(t *testing.T) {
	storage, err := FromMemory()
	require.NoError(t, err)
	defer storage.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, storage.Save(ctx, snapshot(1, time.Now())), context.Canceled)
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanned_tokens.json")
	storage := FromJSONFile(path)
	storage.location = time.UTC
	ctx := context.Background()

	empty, err := storage.Snapshots()
	require.NoError(t, err)
	require.Empty(t, empty)

	at := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Save(ctx, snapshot(1, at, "A")))
	require.NoError(t, storage.Save(ctx, snapshot(2, at.Add(time.Minute), "B", "C")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(content, &raw))
	info := raw["scan_info"].(map[string]any)
	require.Equal(t, float64(2), info["scan_number"])
	require.Equal(t, "2025-01-05 12:01:00", info["timestamp"])
	require.Equal(t, float64(2), info["total_tokens"])
	require.Len(t, raw["tokens"], 2)

	token := raw["tokens"].([]any)[0].(map[string]any)
	require.Equal(t, "B", token["address"])
	require.Contains(t, token, "volume_5m")
	require.Contains(t, token, "created_timestamp")
	require.Equal(t, 1.0, token["age_hours"])
	require.Contains(t, token, "dexscreener_url")

	snapshots, err := storage.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, int64(2), snapshots[0].Sequence)
	require.True(t, snapshots[0].Timestamp.Equal(at.Add(time.Minute)))
	require.Equal(t, []string{"B", "C"}, []string{snapshots[0].Tokens[0].Address, snapshots[0].Tokens[1].Address})

	none, err := storage.Snapshots(core.WithSequenceAfter(2))
	require.NoError(t, err)
	require.Empty(t, none)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestFileStorage_DerivedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanned_tokens.json")
	at := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	snap := core.Snapshot{
		Sequence:  1,
		Timestamp: at,
		Count:     2,
		Tokens: []core.TokenRecord{
			{Address: "A", URL: "https://dexscreener.com/solana/A", CreatedAt: at.Add(-90 * time.Minute).UnixMilli()},
			{Address: "B", URL: "https://dexscreener.com/solana/B"},
		},
	}
	require.NoError(t, FromJSONFile(path).Save(context.Background(), snap))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var file struct {
		Tokens []map[string]any `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(content, &file))
	require.Len(t, file.Tokens, 2)

	require.Equal(t, 1.5, file.Tokens[0]["age_hours"])
	require.Equal(t, "https://dexscreener.com/solana/A", file.Tokens[0]["dexscreener_url"])

	// unknown creation time is written as null
	require.Contains(t, file.Tokens[1], "age_hours")
	require.Nil(t, file.Tokens[1]["age_hours"])
}

func TestFileStorage_EmptyTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, FromJSONFile(path).Save(context.Background(), snapshot(1, time.Now())))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"tokens": []`)
}
