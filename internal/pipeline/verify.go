package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
	"github.com/turahe/mediacore/internal/queue"
)

// verifyCounts tallies what one VerifyStorage sweep found, logged at the
// end the same way the original's maintenance sweep reported a single
// summary line rather than one log entry per file.
type verifyCounts struct {
	checked  int
	missing  int
	orphaned int
	deleted  int
}

// verifyStorage reconciles the database's view of a catalog's stored
// bytes against what its stores actually hold: every MediaFile/AlternateFile
// marked Stored is checked for existence, and every object a store
// holds that nothing in the database references is counted as an
// orphan. With DeleteFiles set, orphans are removed from their store;
// without it, the sweep only reports counts, letting an operator see
// the damage before opting into cleanup.
func verifyStorage(deps Deps) queue.Handler {
	return func(ctx context.Context, q *queue.Queue, t queue.Task) error {
		task, ok := t.(queue.VerifyStorage)
		if !ok {
			return nil
		}

		counts := verifyCounts{}

		files, err := deps.MediaFiles.ListForCatalog(ctx, task.Catalog)
		if err != nil {
			return err
		}
		remote, err := deps.Stores.Remote(ctx, task.Catalog)
		if err != nil {
			return err
		}

		known := make(map[string]struct{})
		for _, row := range files {
			if row.File.Stored == nil {
				continue
			}
			path := row.Path.File(row.File.FileName)
			known[path.RemotePath()] = struct{}{}
			counts.checked++

			ok, err := remote.Exists(ctx, path)
			if err != nil {
				return err
			}
			if !ok {
				counts.missing++
				row.File.Stored = nil
				if err := deps.MediaFiles.Upsert(ctx, []entities.MediaFile{row.File}); err != nil {
					return err
				}
			}

			alts, err := deps.AlternateFiles.ListForMediaFile(ctx, row.File.ID)
			if err != nil {
				return err
			}
			for _, alt := range alts {
				if !alt.Fulfilled() {
					continue
				}
				altPath := row.Path.File(alt.FileName)
				store := deps.Stores.Local
				if !alt.Local {
					store = remote
				}
				known[altPath.RemotePath()] = struct{}{}
				counts.checked++

				ok, err := store.Exists(ctx, altPath)
				if err != nil {
					return err
				}
				if !ok {
					counts.missing++
				}
			}
		}

		objects, err := remote.ListFiles(ctx, respath.CatalogPath{Catalog: task.Catalog})
		if err != nil {
			return err
		}
		for key := range objects {
			if _, ok := known[key]; ok {
				continue
			}
			counts.orphaned++
			if task.DeleteFiles {
				path, err := respath.Parse(key)
				if err != nil {
					continue
				}
				if err := remote.Delete(ctx, path); err != nil {
					return err
				}
				counts.deleted++
			}
		}

		logInfo("verify storage sweep complete",
			zap.String("catalog", task.Catalog),
			zap.Int("checked", counts.checked),
			zap.Int("missing", counts.missing),
			zap.Int("orphaned", counts.orphaned),
			zap.Int("deleted", counts.deleted),
		)
		return nil
	}
}
