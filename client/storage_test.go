package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("a", []byte("plain string")))
	require.NoError(t, store.Set("b", []byte(`{"nested":"json"}`)))

	value, ok, err := store.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("plain string"), value)

	require.NoError(t, store.Delete("a"))
	_, ok, err = store.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)
	require.NoError(t, store.Set("k", []byte("v")))

	reopened := NewFileStore(path)
	value, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	// no stray temp file left behind after the atomic write
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreDeleteMissingKeyIsNoop(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	assert.NoError(t, store.Delete("never-set"))
}

func TestFileStoreCorruptDocumentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path)
	_, _, err := store.Get("k")
	assert.Error(t, err)
}

func TestMemoryStoreIsolatesValues(t *testing.T) {
	store := NewMemoryStore()
	original := []byte("abc")
	require.NoError(t, store.Set("k", original))
	original[0] = 'z'

	value, ok, err := store.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), value)

	value[1] = 'z'
	again, _, _ := store.Get("k")
	assert.Equal(t, []byte("abc"), again)
}
