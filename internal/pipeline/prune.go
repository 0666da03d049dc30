package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/queue"
)

// pruneMediaFiles deletes the bytes and rows of every MediaFile in a
// catalog that isn't the currently selected file for its item: a prior
// upload superseded by a newer, fully processed one. Unlike DeleteMedia
// this never removes the owning MediaItem, only stale versions of it.
func pruneMediaFiles(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.PruneMediaFiles)
		if !ok {
			return nil
		}

		rows, err := deps.MediaFiles.ListPrunable(ctx, task.Catalog)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			if err := deleteMediaFileBytes(ctx, deps, row); err != nil {
				return err
			}
			ids = append(ids, row.File.ID)
		}

		if err := deps.MediaFiles.Delete(ctx, ids); err != nil {
			return err
		}

		logInfo("pruned superseded media files",
			zap.String("catalog", task.Catalog), zap.Int("count", len(ids)))
		return nil
	}
}
