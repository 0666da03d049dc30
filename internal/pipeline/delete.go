package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/queue"
)

// deleteMedia permanently removes the items named by a DeleteMedia task:
// every MediaFile and AlternateFile's stored bytes are dropped from
// whichever store holds them before the database rows go, so a crash
// mid-delete leaves orphaned bytes rather than dangling database
// references (the latter being the harder failure mode to clean up).
func deleteMedia(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.DeleteMedia)
		if !ok {
			return nil
		}

		for _, itemID := range task.MediaIDs {
			files, err := deps.MediaFiles.ListForItem(ctx, itemID)
			if err != nil {
				return err
			}

			for _, row := range files {
				if err := deleteMediaFileBytes(ctx, deps, row); err != nil {
					return err
				}
			}
		}

		if err := deps.MediaItems.Delete(ctx, task.MediaIDs); err != nil {
			return err
		}

		logInfo("deleted media items", zap.Int("count", len(task.MediaIDs)))
		return nil
	}
}

func deleteMediaFileBytes(ctx context.Context, deps Deps, row MediaFileRow) error {
	alternates, err := deps.AlternateFiles.ListForMediaFile(ctx, row.File.ID)
	if err != nil {
		return err
	}

	remote, err := deps.Stores.Remote(ctx, row.Path.Catalog)
	if err != nil {
		return err
	}

	for _, alt := range alternates {
		if !alt.Fulfilled() {
			continue
		}
		path := row.Path.File(alt.FileName)
		if storeLocally(alt.Type) {
			if err := deps.Stores.Local.Delete(ctx, path); err != nil {
				return err
			}
			continue
		}
		if err := remote.Delete(ctx, path); err != nil {
			return err
		}
	}

	if row.File.Stored != nil {
		if err := remote.Delete(ctx, row.Path.File(row.File.FileName)); err != nil {
			return err
		}
	}
	return nil
}
