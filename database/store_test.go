package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}

func TestStorePutGet(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Put("greeting", "hello"))

	value, err := store.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	// Overwrite
	require.NoError(t, store.Put("greeting", "goodbye"))
	value, err = store.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "goodbye", value)
}

func TestStoreGetMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get("no-such-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, err := store.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete("k"))
}

func TestStoreQuota(t *testing.T) {
	store := setupStore(t)
	store.SetQuota(10)

	require.NoError(t, store.Put("small", "fits"))

	err := store.Put("big", "this value is larger than ten bytes")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The failed write must not clobber anything
	_, err = store.Get("big")
	assert.ErrorIs(t, err, ErrNotFound)
}
