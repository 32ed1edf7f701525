package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger_New(t *testing.T) {
	l := New()
	require.Equal(t, 0, l.Len())
	require.False(t, l.Has("X1"))
}

func TestLedger_Add(t *testing.T) {
	l := New()

	l.Add("X1")
	l.Add("X2")
	l.Add("X1")

	require.True(t, l.Has("X1"))
	require.True(t, l.Has("X2"))
	require.False(t, l.Has("X3"))
	require.Equal(t, 2, l.Len())
	require.Equal(t, []string{"X1", "X2"}, l.Addresses())
}

func TestLedger_AddEmpty(t *testing.T) {
	l := New()
	l.Add("")

	require.Equal(t, 0, l.Len())
	require.False(t, l.Has(""))
}
