package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	require.Equal(t, WarnLevel, level)
	require.Equal(t, "warn", level.String())

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var log Logger = Nop{}
	log.WithField("k", "v").WithError(nil).Infof("%d", 1)
	require.Equal(t, Disabled, log.GetLevel())
}
