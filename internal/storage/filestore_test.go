package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "session-folders", []byte(`[{"id":"f1"}]`)))

	data, err := store.Read(ctx, "session-folders")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"f1"}]`, string(data))
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "never-written")
	require.ErrorIs(t, err, capability.ErrKeyNotFound)
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "doc", []byte(`"one"`)))
	require.NoError(t, store.Write(ctx, "doc", []byte(`"two"`)))

	data, err := store.Read(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, `"two"`, string(data))
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	_, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "../escape", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The write must land inside the store directory.
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	require.True(t, os.IsNotExist(err))
}

func TestFileStoreRequiresDirectory(t *testing.T) {
	_, err := NewFileStore("  ")
	require.Error(t, err)
}
