package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	respath "github.com/turahe/mediacore/internal/domain/path"
)

func TestDiskStore_PushThenExistsThenPull(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, false)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "upload.jpg")
	require.NoError(t, os.WriteFile(src, []byte("bytes"), 0o644))

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "photo.jpg"}

	ctx := context.Background()
	require.NoError(t, store.Push(ctx, src, path, "image/jpeg"))

	exists, err := store.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	target := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, store.Pull(ctx, path, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestDiskStore_TestingModeSkipsPush(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, true)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "upload.jpg")
	require.NoError(t, os.WriteFile(src, []byte("bytes"), 0o644))

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "photo.jpg"}

	ctx := context.Background()
	require.NoError(t, store.Push(ctx, src, path, "image/jpeg"))

	exists, err := store.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStore_CopyFromTempHardLinksOrCopies(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, false)

	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "orig")
	require.NoError(t, os.WriteFile(tempFile, []byte("original"), 0o644))

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "orig.jpg"}
	ctx := context.Background()
	require.NoError(t, store.CopyFromTemp(ctx, tempFile, path))

	exists, err := store.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiskStore_ListFilesWalksTree(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, false)
	ctx := context.Background()

	path1 := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	path2 := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "b.jpg"}

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "x")
	require.NoError(t, os.WriteFile(src, []byte("12345"), 0o644))

	require.NoError(t, store.Push(ctx, src, path1, "image/jpeg"))
	require.NoError(t, store.Push(ctx, src, path2, "image/jpeg"))

	files, err := store.ListFiles(ctx, respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "file1"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, int64(5), files["cat1/item1/file1/a.jpg"])
}

func TestDiskStore_DeleteRemovesFile(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, false)
	ctx := context.Background()

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "x")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, store.Push(ctx, src, path, "image/jpeg"))

	require.NoError(t, store.Delete(ctx, path))

	exists, err := store.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStore_PruneRemovesEmptyDirsUpToRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, false)
	ctx := context.Background()

	path := respath.FilePath{Catalog: "cat1", Item: "item1", File: "file1", FileName: "a.jpg"}
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "x")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, store.Push(ctx, src, path, "image/jpeg"))
	require.NoError(t, store.Delete(ctx, path))

	require.NoError(t, store.Prune(ctx, respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "file1"}))

	_, err := os.Stat(filepath.Join(root, "cat1", "item1"))
	assert.True(t, os.IsNotExist(err))
}
