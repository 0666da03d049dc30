package pipeline

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/internal/extractor"
	"github.com/turahe/mediacore/internal/queue"
)

// extractMetadata pulls a MediaFile's bytes local, runs exiftool/ffprobe
// over them, and persists whatever extractor.Extract found. NeedsMetadata
// clears even on a file extractor couldn't parse at all, matching the
// original's "best effort, never block forever on a bad file" stance;
// a hard failure short of that (I/O, database) still surfaces so the
// task isn't silently marked done.
func extractMetadata(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.ExtractMetadata)
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

		fm, err := extractor.Extract(ctx, local, row.File.FileSize, row.File.FileName)
		if err != nil {
			logWarn("metadata extraction failed, clearing needs_metadata anyway",
				zap.String("media_file", task.MediaFile), zap.Error(err))
		} else if err := extractor.ApplyToMediaFile(fm, &row.File); err != nil {
			logWarn("metadata mapping failed, clearing needs_metadata anyway",
				zap.String("media_file", task.MediaFile), zap.Error(err))
		}

		row.File.NeedsMetadata = false
		if err := deps.MediaFiles.Upsert(ctx, []entities.MediaFile{row.File}); err != nil {
			return err
		}

		return deps.MediaItems.Resync(ctx, row.File.MediaItem)
	}
}
