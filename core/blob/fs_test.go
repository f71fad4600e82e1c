package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStoreUploadAndRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFSStore(dir, "https://media.example.com")

	uri, err := store.Upload(ctx, "feedback/2026/08/28/r1.jpg", []byte("payload"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://media.example.com/feedback/2026/08/28/r1.jpg", uri)

	data, err := os.ReadFile(filepath.Join(dir, "feedback", "2026", "08", "28", "r1.jpg"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)

	require.NoError(t, store.Remove(ctx, "feedback/2026/08/28/r1.jpg"))
	_, err = os.Stat(filepath.Join(dir, "feedback", "2026", "08", "28", "r1.jpg"))
	require.True(t, os.IsNotExist(err))

	// Removing again is a no-op.
	require.NoError(t, store.Remove(ctx, "feedback/2026/08/28/r1.jpg"))
}

func TestFSStoreFileURIWithoutBase(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir, "")

	uri, err := store.Upload(context.Background(), "a/b.bin", []byte{1, 2}, "application/octet-stream")
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(dir, "a", "b.bin"), uri)
}
