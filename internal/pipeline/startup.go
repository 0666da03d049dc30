package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/queue"
)

// serverStartup runs once per process boot: it enqueues one DeleteMedia
// for every soft-deleted item, then reschedules the sweeps every catalog
// needs so a restart never leaves ProcessMedia/UploadMediaFile work
// stranded in whatever state the last shutdown caught it in.
func serverStartup(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, task queue.Task) error {
		deleted, err := deps.MediaItems.ListDeleted(ctx)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			ids := make([]string, 0, len(deleted))
			for _, item := range deleted {
				ids = append(ids, item.ID)
			}
			q.Enqueue(ctx, queue.DeleteMedia{MediaIDs: ids})
		}

		catalogs, err := deps.Catalogs.ListCatalogs(ctx)
		if err != nil {
			return err
		}

		for _, catalog := range catalogs {
			q.Enqueue(ctx, queue.ProcessMedia{Catalog: catalog})
			q.Enqueue(ctx, queue.UpdateSearches{Catalog: catalog})
		}

		logInfo("server startup sweep enqueued", zap.Int("catalogs", len(catalogs)))
		return nil
	}
}
