package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
	"github.com/turahe/mediacore/internal/queue"
)

func newTestQueue() *queue.Queue {
	return queue.New(config.TaskQueue{CheapWorkers: 2, ExpensiveWorkers: 1})
}

func TestServerStartup_EnqueuesPerCatalogSweeps(t *testing.T) {
	deps, _, _, _, _, _ := testDeps(t)
	q := newTestQueue()

	var sawProcess, sawSearches int
	q.RegisterHandler("ProcessMedia", func(ctx context.Context, q *queue.Queue, task queue.Task) error {
		sawProcess++
		return nil
	})
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *queue.Queue, task queue.Task) error {
		sawSearches++
		return nil
	})

	handler := serverStartup(deps)
	require.NoError(t, handler(context.Background(), q, queue.ServerStartup{}))
	require.NoError(t, q.Drain(context.Background()))

	assert.Equal(t, 1, sawProcess)
	assert.Equal(t, 1, sawSearches)
}

func TestUpdateSearches_DelegatesToSavedSearchRepo(t *testing.T) {
	deps, _, _, _, _, _ := testDeps(t)
	q := newTestQueue()

	handler := updateSearches(deps)
	require.NoError(t, handler(context.Background(), q, queue.UpdateSearches{Catalog: "cat1"}))

	searches := deps.SavedSearches.(*fakeSavedSearchRepo)
	assert.Equal(t, []string{"cat1"}, searches.updated)
}

func TestExtractMetadata_ClearsNeedsMetadataAndResyncs(t *testing.T) {
	deps, mediaFiles, _, items, local, _ := testDeps(t)
	q := newTestQueue()

	path := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "file1"}
	filePath := path.File("original.jpg")
	local.put(filePath, []byte("not a real jpeg but exercises the path"))

	file := entities.MediaFile{
		ID: "file1", MediaItem: "item1", FileName: "original.jpg",
		Mimetype: "image/jpeg", NeedsMetadata: true, FileSize: 10,
	}
	mediaFiles.add(MediaFileRow{File: file, Path: path})

	handler := extractMetadata(deps)
	err := handler(context.Background(), q, queue.ExtractMetadata{MediaFile: "file1"})
	require.NoError(t, err)

	row, getErr := mediaFiles.Get(context.Background(), "file1")
	require.NoError(t, getErr)
	assert.False(t, row.File.NeedsMetadata)
	assert.Contains(t, items.resynced, "item1")
}

func TestUploadMediaFile_PushesToRemoteAndStampsStored(t *testing.T) {
	deps, mediaFiles, _, items, local, remote := testDeps(t)
	q := newTestQueue()

	path := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "file1"}
	filePath := path.File("original.jpg")
	local.put(filePath, []byte("bytes"))

	file := entities.MediaFile{
		ID: "file1", MediaItem: "item1", FileName: "original.jpg",
		Mimetype: "image/jpeg", Width: 800, Height: 600,
	}
	mediaFiles.add(MediaFileRow{File: file, Path: path})

	handler := uploadMediaFile(deps)
	require.NoError(t, handler(context.Background(), q, queue.UploadMediaFile{MediaFile: "file1"}))

	ok, err := remote.Exists(context.Background(), filePath)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := mediaFiles.Get(context.Background(), "file1")
	require.NoError(t, err)
	assert.NotNil(t, row.File.Stored)
	assert.Equal(t, 1, row.File.ProcessVersion)
	assert.Contains(t, items.resynced, "item1")
}

func TestDeleteMedia_RemovesBytesAndItemRows(t *testing.T) {
	deps, mediaFiles, alternates, items, local, remote := testDeps(t)
	q := newTestQueue()

	path := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "file1"}
	original := path.File("original.jpg")
	stored := time.Now()
	remote.put(original, []byte("bytes"))

	thumbPath := path.File("thumb.jpg")
	local.put(thumbPath, []byte("thumb"))

	file := entities.MediaFile{ID: "file1", MediaItem: "item1", FileName: "original.jpg", Stored: &stored}
	mediaFiles.add(MediaFileRow{File: file, Path: path})
	require.NoError(t, alternates.Upsert(context.Background(), []entities.AlternateFile{
		{ID: "alt1", MediaFile: "file1", Type: entities.AlternateThumbnail, FileName: "thumb.jpg", Stored: &stored},
	}))

	handler := deleteMedia(deps)
	require.NoError(t, handler(context.Background(), q, queue.DeleteMedia{MediaIDs: []string{"item1"}}))

	okRemote, _ := remote.Exists(context.Background(), original)
	assert.False(t, okRemote)
	okLocal, _ := local.Exists(context.Background(), thumbPath)
	assert.False(t, okLocal)
	assert.Contains(t, items.deleted, "item1")
}

func TestProcessMedia_EnqueuesMetadataUploadAndAlternateWork(t *testing.T) {
	deps, mediaFiles, _, items, _, _ := testDeps(t)
	q := newTestQueue()

	var extractSeen, uploadSeen, buildSeen int
	q.RegisterHandler("ExtractMetadata", func(ctx context.Context, q *queue.Queue, t queue.Task) error { extractSeen++; return nil })
	q.RegisterHandler("UploadMediaFile", func(ctx context.Context, q *queue.Queue, t queue.Task) error { uploadSeen++; return nil })
	q.RegisterHandler("BuildAlternate", func(ctx context.Context, q *queue.Queue, t queue.Task) error { buildSeen++; return nil })
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *queue.Queue, t queue.Task) error { return nil })

	path1 := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "f1"}
	mediaFiles.add(MediaFileRow{File: entities.MediaFile{ID: "f1", MediaItem: "item1", NeedsMetadata: true}, Path: path1})

	stored := time.Now()
	path2 := respath.MediaFilePath{Catalog: "cat1", Item: "item2", File: "f2"}
	mediaFiles.add(MediaFileRow{File: entities.MediaFile{
		ID: "f2", MediaItem: "item2", Mimetype: "image/png", Width: 100, Height: 100, Stored: &stored,
	}, Path: path2})

	handler := processMedia(deps)
	require.NoError(t, handler(context.Background(), q, queue.ProcessMedia{Catalog: "cat1"}))
	require.NoError(t, q.Drain(context.Background()))

	assert.Equal(t, 1, extractSeen)
	assert.Equal(t, 0, uploadSeen)
	assert.True(t, buildSeen > 0)
	assert.Contains(t, items.updated, "cat1")
}

func TestPruneMediaFiles_NoOpWhenNothingPrunable(t *testing.T) {
	deps, _, _, _, _, _ := testDeps(t)
	q := newTestQueue()

	handler := pruneMediaFiles(deps)
	require.NoError(t, handler(context.Background(), q, queue.PruneMediaFiles{Catalog: "cat1"}))
}

func TestVerifyStorage_ClearsMissingAndDeletesOrphanedObjects(t *testing.T) {
	deps, mediaFiles, _, _, _, remote := testDeps(t)
	q := newTestQueue()

	path := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "f1"}
	stored := time.Now()
	mediaFiles.add(MediaFileRow{File: entities.MediaFile{
		ID: "f1", MediaItem: "item1", FileName: "original.jpg", Stored: &stored,
	}, Path: path})
	// Not actually pushed to remote: Exists() returns false, VerifyStorage
	// should notice and clear Stored.
	remote.put(respath.FilePath{Catalog: "cat1", Item: "item1", File: "f1", FileName: "orphan.bin"}, []byte("x"))

	handler := verifyStorage(deps)
	require.NoError(t, handler(context.Background(), q, queue.VerifyStorage{Catalog: "cat1", DeleteFiles: true}))

	row, err := mediaFiles.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Nil(t, row.File.Stored)

	ok, _ := remote.Exists(context.Background(), respath.FilePath{Catalog: "cat1", Item: "item1", File: "f1", FileName: "orphan.bin"})
	assert.False(t, ok)
}

func TestFitDimensions_PreservesAspectRatio(t *testing.T) {
	w, h := fitDimensions(1600, 800, 300)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)

	w2, h2 := fitDimensions(0, 0, 300)
	assert.Equal(t, 300, w2)
	assert.Equal(t, 300, h2)
}

func TestAlternatesForMediaFile_ImageGetsThumbnailsAndReencode(t *testing.T) {
	specs := alternatesForMediaFile(entities.MediaFile{Mimetype: "image/png", Width: 1000, Height: 1000})
	thumbs := 0
	reencodes := 0
	for _, s := range specs {
		if s.Type == entities.AlternateThumbnail {
			thumbs++
		}
		if s.Type == entities.AlternateReencode {
			reencodes++
		}
	}
	assert.Equal(t, len(thumbnailSizes), thumbs)
	assert.Equal(t, 1, reencodes)
}

func TestAlternatesForMediaFile_JPEGSourceSkipsReencode(t *testing.T) {
	specs := alternatesForMediaFile(entities.MediaFile{Mimetype: "image/jpeg", Width: 1000, Height: 1000})
	for _, s := range specs {
		assert.NotEqual(t, entities.AlternateReencode, s.Type)
	}
}

func TestEnsureLocalCopy_PullsFromLocalThenCaches(t *testing.T) {
	deps, mediaFiles, _, _, local, _ := testDeps(t)

	path := respath.MediaFilePath{Catalog: "cat1", Item: "item1", File: "f1"}
	local.put(path.File("original.jpg"), []byte("hello"))
	file := entities.MediaFile{ID: "f1", MediaItem: "item1", FileName: "original.jpg"}
	mediaFiles.add(MediaFileRow{File: file, Path: path})

	guard := deps.Locks.MediaItem("item1")
	defer guard.Release()
	ops := newMediaFileOps(deps.Stores, guard.Lock().FileOps("f1"), deps.TempDir)

	row, err := mediaFiles.Get(context.Background(), "f1")
	require.NoError(t, err)

	local1, err := ensureLocalCopy(context.Background(), ops, row)
	require.NoError(t, err)
	defer os.Remove(local1)

	data, err := os.ReadFile(local1)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, filepath.Join(deps.TempDir, "cat1-item1-f1-original.jpg"), local1)
}
