// Package pipeline implements the nine background task contracts that
// move a media item from "just uploaded" to "fully processed and
// searchable": ServerStartup, ProcessMedia, ExtractMetadata,
// UploadMediaFile, BuildAlternate, DeleteMedia, UpdateSearches,
// VerifyStorage and PruneMediaFiles. Each is registered as a
// internal/queue.Handler against the interfaces below rather than the
// concrete Postgres types in internal/persistence, so every handler is
// tested against in-memory fakes (fakes_test.go); internal/container
// wires the real internal/persistence stores in at process startup.
package pipeline

import (
	"context"

	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
	"github.com/turahe/mediacore/internal/locks"
	"github.com/turahe/mediacore/internal/queue"
	"github.com/turahe/mediacore/internal/storage"
)

// MediaItemRepo is the slice of media-item persistence the pipeline needs.
type MediaItemRepo interface {
	ListDeleted(ctx context.Context) ([]entities.MediaItem, error)
	Delete(ctx context.Context, ids []string) error
	// UpdateMediaFiles recomputes each item's selected media_file and
	// datetime/taken_zone derivation for every item in catalog.
	UpdateMediaFiles(ctx context.Context, catalog string) error
	// Resync re-derives a single item's selected file after one of its
	// MediaFiles changes state (uploaded, metadata extracted, deleted).
	Resync(ctx context.Context, mediaItemID string) error
}

// MediaFileRow pairs a MediaFile with the resource path its bytes live
// under, the same tuple shape the original's list queries return.
type MediaFileRow struct {
	File entities.MediaFile
	Path respath.MediaFilePath
}

// MediaFileRepo is the slice of media-file persistence the pipeline needs.
type MediaFileRepo interface {
	Get(ctx context.Context, id string) (MediaFileRow, error)
	ListForCatalog(ctx context.Context, catalog string) ([]MediaFileRow, error)
	// ListForItem returns every MediaFile uploaded under mediaItemID.
	ListForItem(ctx context.Context, mediaItemID string) ([]MediaFileRow, error)
	// ListNewest returns each item's currently selected MediaFile only.
	ListNewest(ctx context.Context, catalog string) ([]MediaFileRow, error)
	// ListPrunable returns every MediaFile row that is not the currently
	// selected file for its item.
	ListPrunable(ctx context.Context, catalog string) ([]MediaFileRow, error)
	Upsert(ctx context.Context, files []entities.MediaFile) error
	Delete(ctx context.Context, ids []string) error
}

// AlternateFileRow pairs an AlternateFile with the path its bytes live
// (or will live) under.
type AlternateFileRow struct {
	Alternate entities.AlternateFile
	Path      respath.FilePath
}

// AlternateFileRepo is the slice of alternate-file persistence the
// pipeline needs.
type AlternateFileRepo interface {
	ListForCatalog(ctx context.Context, catalog string) ([]AlternateFileRow, error)
	ListForMediaFile(ctx context.Context, mediaFileID string) ([]entities.AlternateFile, error)
	Upsert(ctx context.Context, alternates []entities.AlternateFile) error
}

// StorageRepo resolves the per-catalog Storage row remote operations
// need credentials from. "Lock" in LockForCatalog names the row-level
// SELECT ... FOR UPDATE the Postgres implementation issues; that lock
// ends with the statement, so it is not held while a handler reconciles
// a catalog's files.
type StorageRepo interface {
	LockForCatalog(ctx context.Context, catalog string) (entities.Storage, error)
}

// CatalogRepo lists every catalog id known to the system.
type CatalogRepo interface {
	ListCatalogs(ctx context.Context) ([]string, error)
}

// SavedSearchRepo recomputes saved-search membership.
type SavedSearchRepo interface {
	UpdateForCatalog(ctx context.Context, catalog string) error
}

// Stores builds the three FileStore views a pipeline step needs: the
// process-wide local cache, the process-wide temp scratch area, and a
// freshly credentialed remote client for whichever catalog is being
// processed.
type Stores struct {
	Storages StorageRepo
	Local    storage.FileStore
	Temp     storage.FileStore
	// NewRemote builds the remote FileStore for a catalog's Storage row.
	// Defaults to storage.NewRemote(st, false); tests override it to
	// return an in-memory fake instead of a real minio client.
	NewRemote func(st entities.Storage) (storage.FileStore, error)
}

// Remote builds the remote FileStore for catalog's Storage row.
func (s Stores) Remote(ctx context.Context, catalog string) (storage.FileStore, error) {
	st, err := s.Storages.LockForCatalog(ctx, catalog)
	if err != nil {
		return nil, err
	}
	if s.NewRemote != nil {
		return s.NewRemote(st)
	}
	return storage.NewRemote(st, false)
}

// Deps bundles every collaborator the nine pipeline steps are built
// against.
type Deps struct {
	MediaItems     MediaItemRepo
	MediaFiles     MediaFileRepo
	AlternateFiles AlternateFileRepo
	Catalogs       CatalogRepo
	SavedSearches  SavedSearchRepo
	Stores         Stores
	Locks          *locks.Locks
	// TempDir is where ensureLocalCopy and the alternate builders stage
	// scratch files; distinct from Stores.Temp, which addresses the
	// temp FileStore bytes are pushed/pulled through.
	TempDir string
}

// Register wires a Handler for every task kind onto q.
func Register(q *queue.Queue, deps Deps) {
	q.RegisterHandler("ServerStartup", serverStartup(deps))
	q.RegisterHandler("DeleteMedia", deleteMedia(deps))
	q.RegisterHandler("UpdateSearches", updateSearches(deps))
	q.RegisterHandler("ProcessMedia", processMedia(deps))
	q.RegisterHandler("ExtractMetadata", extractMetadata(deps))
	q.RegisterHandler("UploadMediaFile", uploadMediaFile(deps))
	q.RegisterHandler("BuildAlternate", buildAlternate(deps))
	q.RegisterHandler("VerifyStorage", verifyStorage(deps))
	q.RegisterHandler("PruneMediaFiles", pruneMediaFiles(deps))
}
