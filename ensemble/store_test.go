package ensemble

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer store.Close()

	m := flatMatrix(42)
	require.NoError(t, store.Put("raw", 3, m))

	got, ok, err := store.Get("raw", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, m.Values, got.Values)
	require.Equal(t, m.Ex, got.Ex)

	// Same index under a different kind is a distinct entry.
	_, ok, err = store.Get("fg", 3)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Get("raw", 4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	store, err := OpenStore(path)
	require.NoError(t, err)

	m := flatMatrix(7)
	require.NoError(t, store.Put("raw", 0, m))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get("raw", 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, m.Values, got.Values)
}
