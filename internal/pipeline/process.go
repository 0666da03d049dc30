package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/queue"
)

// processMedia sweeps every MediaFile in a catalog and enqueues whatever
// follow-up work each one is still missing: metadata extraction, the
// upload of its original bytes, or any alternate it hasn't built yet.
// It then asks MediaItemRepo to resync each item's selected file and
// UpdateSearches to catch up, the same "rebuild everything downstream"
// sweep the original ran after any catalog-wide change.
func processMedia(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.ProcessMedia)
		if !ok {
			return nil
		}

		files, err := deps.MediaFiles.ListForCatalog(ctx, task.Catalog)
		if err != nil {
			return err
		}

		pending := 0
		for _, row := range files {
			if row.File.NeedsMetadata {
				q.Enqueue(ctx, queue.ExtractMetadata{MediaFile: row.File.ID})
				pending++
				continue
			}
			if row.File.Stored == nil {
				q.Enqueue(ctx, queue.UploadMediaFile{MediaFile: row.File.ID})
				pending++
				continue
			}

			missing, err := missingAlternates(ctx, deps, row)
			if err != nil {
				return err
			}
			for _, spec := range missing {
				q.Enqueue(ctx, queue.BuildAlternate{MediaFile: row.File.ID, MimeGroup: mimeGroup(spec.Mimetype)})
				pending++
			}
		}

		if err := deps.MediaItems.UpdateMediaFiles(ctx, task.Catalog); err != nil {
			return err
		}
		q.Enqueue(ctx, queue.UpdateSearches{Catalog: task.Catalog})

		logInfo("processed media catalog sweep",
			zap.String("catalog", task.Catalog),
			zap.Int("files", len(files)),
			zap.Int("enqueued", pending),
		)
		return nil
	}
}

// missingAlternates returns the AlternateSpecs row is expected to have
// that no existing, fulfilled AlternateFile already satisfies.
func missingAlternates(ctx context.Context, deps Deps, row MediaFileRow) ([]AlternateSpec, error) {
	existing, err := deps.AlternateFiles.ListForMediaFile(ctx, row.File.ID)
	if err != nil {
		return nil, err
	}

	var missing []AlternateSpec
	for _, spec := range alternatesForMediaFile(row.File) {
		found := false
		for _, alt := range existing {
			if alt.Fulfilled() && spec.Matches(alt) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, spec)
		}
	}
	return missing, nil
}
