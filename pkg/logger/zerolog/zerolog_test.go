package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestAdapter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	root, err := New(Config{Level: "debug", JSON: true, Output: &buf})
	require.NoError(t, err)

	log := NewAdapter(root.Logger)
	log.WithField("address", "X1").
		WithFields(map[string]any{"category": "normal"}).
		WithError(errors.New("boom")).
		Info("alert sent")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "alert sent", line["message"])
	require.Equal(t, "X1", line["address"])
	require.Equal(t, "normal", line["category"])
	require.Equal(t, "boom", line["error"])
	require.Equal(t, "info", line["level"])
}

func TestAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	root, err := New(Config{Level: "info", JSON: true, Output: &buf})
	require.NoError(t, err)

	log := NewAdapter(root.Logger)
	require.Equal(t, logger.InfoLevel, log.GetLevel())

	log.Debug("hidden")
	require.Zero(t, buf.Len())

	log.SetLevel(logger.DebugLevel)
	require.Equal(t, logger.DebugLevel, log.GetLevel())
	log.Debug("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestConsoleLayout(t *testing.T) {
	var buf bytes.Buffer
	root, err := New(Config{Level: "info", TimeFormat: "15:04:05", Output: &buf})
	require.NoError(t, err)

	NewAdapter(root.Logger).Warn("slow source")
	require.Contains(t, buf.String(), "[WAR]")
	require.Contains(t, buf.String(), "slow source")
}
