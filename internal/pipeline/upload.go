package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/queue"
)

// uploadMediaFile pushes a MediaFile's original bytes from the local
// cache to its catalog's remote store and stamps Stored once the push
// succeeds, the point at which the original becomes eligible for
// selection (entities.MediaFile.IsCurrent).
func uploadMediaFile(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.UploadMediaFile)
		if !ok {
			return nil
		}

		row, err := deps.MediaFiles.Get(ctx, task.MediaFile)
		if err != nil {
			return err
		}

		guard := deps.Locks.MediaItem(row.File.MediaItem)
		defer guard.Release()
		ops := newMediaFileOps(deps.Stores, guard.Lock().FileOps(row.File.ID), deps.TempDir)

		local, err := ensureLocalCopy(ctx, ops, row)
		if err != nil {
			return err
		}
		defer os.Remove(local)

		remote, err := deps.Stores.Remote(ctx, row.Path.Catalog)
		if err != nil {
			return err
		}
		path := row.Path.File(row.File.FileName)
		if err := remote.Push(ctx, local, path, row.File.Mimetype); err != nil {
			return err
		}

		now := time.Now()
		row.File.Stored = &now
		if row.File.ProcessVersion == 0 {
			row.File.ProcessVersion = 1
		}
		if err := deps.MediaFiles.Upsert(ctx, []entities.MediaFile{row.File}); err != nil {
			return err
		}

		if err := deps.MediaItems.Resync(ctx, row.File.MediaItem); err != nil {
			return err
		}

		for _, spec := range alternatesForMediaFile(row.File) {
			q.Enqueue(ctx, queue.BuildAlternate{MediaFile: row.File.ID, MimeGroup: mimeGroup(spec.Mimetype)})
		}
		return nil
	}
}
