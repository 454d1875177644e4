package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchReadsRelativePath(t *testing.T) {
	store, root := setupStore(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "reports", "q1.pdf"), []byte("content"), 0o644))

	data, err := store.Fetch(context.Background(), "reports/q1.pdf")
	require.NoError(t, err)
	require.Equal(t, []byte("content"), data)
}

func TestFetchMissingFile(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Fetch(context.Background(), "reports/nope.pdf")
	require.ErrorIs(t, err, ErrFileMissing)
}

func TestFetchRejectsEscapingPaths(t *testing.T) {
	store, root := setupStore(t)

	// A sibling of the root must stay unreachable even though it exists.
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	for _, path := range []string{
		"../secret.txt",
		"reports/../../secret.txt",
		"/etc/passwd",
		"",
		"   ",
	} {
		_, err := store.Fetch(context.Background(), path)
		require.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
}

func TestFetchHonoursContextCancellation(t *testing.T) {
	store, _ := setupStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Fetch(ctx, "reports/q1.pdf")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewLocalStoreRequiresRoot(t *testing.T) {
	_, err := NewLocalStore("  ")
	require.Error(t, err)
}

func setupStore(t *testing.T) (*LocalStore, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "files")
	require.NoError(t, os.MkdirAll(root, 0o755))

	store, err := NewLocalStore(root)
	require.NoError(t, err)
	return store, root
}
