package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/bloomset/internal/keyset"
)

func openTemp(t *testing.T) keyset.Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestBoltStore_EmptyMisses(t *testing.T) {
	st := openTemp(t)
	ok, err := st.Has("a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, keyset.StoreStats{}, st.Stats())
}

func TestBoltStore_RebuildAllReplacesSnapshot(t *testing.T) {
	st := openTemp(t)

	require.NoError(t, st.RebuildAll([]string{"a", "b", "c"}, 1, 1700000000))
	for _, k := range []string{"a", "b", "c"} {
		ok, err := st.Has(k)
		require.NoError(t, err)
		assert.True(t, ok, k)
	}
	assert.Equal(t, keyset.StoreStats{Keys: 3, Version: 1, UpdatedUnix: 1700000000}, st.Stats())

	require.NoError(t, st.RebuildAll([]string{"d"}, 2, 1700000100))
	ok, err := st.Has("a")
	require.NoError(t, err)
	assert.False(t, ok, "old snapshot key survived rebuild")
	ok, err = st.Has("d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, keyset.StoreStats{Keys: 1, Version: 2, UpdatedUnix: 1700000100}, st.Stats())
}

func TestBoltStore_RebuildAllRollsBackOnEmptyKey(t *testing.T) {
	st := openTemp(t)
	require.NoError(t, st.RebuildAll([]string{"keep"}, 1, 10))

	err := st.RebuildAll([]string{"x", ""}, 2, 20)
	assert.ErrorIs(t, err, ErrEmptyKey)

	ok, err := st.Has("keep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), st.Stats().Version)
}

func TestBoltStore_Put(t *testing.T) {
	st := openTemp(t)
	require.NoError(t, st.Put("solo"))
	ok, err := st.Has("solo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), st.Stats().Keys)

	assert.ErrorIs(t, st.Put(""), ErrEmptyKey)
}

func TestBoltStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.RebuildAll([]string{"persist"}, 7, 99))
	require.NoError(t, st.Close())

	st, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ok, err := st.Has("persist")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), st.Stats().Version)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "keys.db"))
	assert.Error(t, err)
}
