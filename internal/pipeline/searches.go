package pipeline

import (
	"context"

	"github.com/turahe/mediacore/internal/queue"
)

// updateSearches recomputes every saved search's membership for one
// catalog, run after any change that could move an item in or out of a
// search's result set (new upload, metadata extraction, tag/album edit).
func updateSearches(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.UpdateSearches)
		if !ok {
			return nil
		}
		return deps.SavedSearches.UpdateForCatalog(ctx, task.Catalog)
	}
}
