package pipeline

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
	"github.com/turahe/mediacore/internal/locks"
	"github.com/turahe/mediacore/internal/storage"
)

// fakeFileStore is an in-memory storage.FileStore used in place of both
// the local cache and a catalog's remote client in tests.
type fakeFileStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{objects: make(map[string][]byte)}
}

func (s *fakeFileStore) ListFiles(ctx context.Context, prefix respath.ResourcePath) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	p := prefix.RemotePath()
	for k, v := range s.objects {
		if strings.HasPrefix(k, p) {
			out[k] = int64(len(v))
		}
	}
	return out, nil
}

func (s *fakeFileStore) Exists(ctx context.Context, path respath.FilePath) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path.RemotePath()]
	return ok, nil
}

func (s *fakeFileStore) Push(ctx context.Context, source string, path respath.FilePath, mimetype string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return coreerrors.IoError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path.RemotePath()] = data
	return nil
}

func (s *fakeFileStore) Pull(ctx context.Context, path respath.FilePath, target string) error {
	s.mu.Lock()
	data, ok := s.objects[path.RemotePath()]
	s.mu.Unlock()
	if !ok {
		return coreerrors.NotFound("file", path.RemotePath())
	}
	return os.WriteFile(target, data, 0o644)
}

func (s *fakeFileStore) Delete(ctx context.Context, path respath.ResourcePath) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fp, ok := path.(respath.FilePath); ok {
		delete(s.objects, fp.RemotePath())
		return nil
	}
	prefix := path.RemotePath() + "/"
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *fakeFileStore) Prune(ctx context.Context, path respath.ResourcePath) error { return nil }

func (s *fakeFileStore) put(path respath.FilePath, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path.RemotePath()] = data
}

// fakeCatalogRepo
type fakeCatalogRepo struct{ catalogs []string }

func (f fakeCatalogRepo) ListCatalogs(ctx context.Context) ([]string, error) { return f.catalogs, nil }

// fakeSavedSearchRepo
type fakeSavedSearchRepo struct {
	mu      sync.Mutex
	updated []string
}

func (f *fakeSavedSearchRepo) UpdateForCatalog(ctx context.Context, catalog string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, catalog)
	return nil
}

// fakeStorageRepo
type fakeStorageRepo struct{ storage entities.Storage }

func (f fakeStorageRepo) LockForCatalog(ctx context.Context, catalog string) (entities.Storage, error) {
	return f.storage, nil
}

// fakeMediaItemRepo
type fakeMediaItemRepo struct {
	mu       sync.Mutex
	deleted  []string
	resynced []string
	updated  []string
	listDel  []entities.MediaItem
}

func (f *fakeMediaItemRepo) ListDeleted(ctx context.Context) ([]entities.MediaItem, error) {
	return f.listDel, nil
}

func (f *fakeMediaItemRepo) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeMediaItemRepo) UpdateMediaFiles(ctx context.Context, catalog string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, catalog)
	return nil
}

func (f *fakeMediaItemRepo) Resync(ctx context.Context, mediaItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resynced = append(f.resynced, mediaItemID)
	return nil
}

// fakeMediaFileRepo
type fakeMediaFileRepo struct {
	mu    sync.Mutex
	rows  map[string]MediaFileRow
	order []string
}

func newFakeMediaFileRepo() *fakeMediaFileRepo {
	return &fakeMediaFileRepo{rows: make(map[string]MediaFileRow)}
}

func (f *fakeMediaFileRepo) add(row MediaFileRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[row.File.ID]; !exists {
		f.order = append(f.order, row.File.ID)
	}
	f.rows[row.File.ID] = row
}

func (f *fakeMediaFileRepo) Get(ctx context.Context, id string) (MediaFileRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return MediaFileRow{}, coreerrors.NotFound("media_file", id)
	}
	return row, nil
}

func (f *fakeMediaFileRepo) ListForCatalog(ctx context.Context, catalog string) ([]MediaFileRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MediaFileRow
	for _, id := range f.order {
		row := f.rows[id]
		if row.Path.Catalog == catalog {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeMediaFileRepo) ListForItem(ctx context.Context, mediaItemID string) ([]MediaFileRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MediaFileRow
	for _, id := range f.order {
		row := f.rows[id]
		if row.File.MediaItem == mediaItemID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeMediaFileRepo) ListNewest(ctx context.Context, catalog string) ([]MediaFileRow, error) {
	return f.ListForCatalog(ctx, catalog)
}

func (f *fakeMediaFileRepo) ListPrunable(ctx context.Context, catalog string) ([]MediaFileRow, error) {
	return nil, nil
}

func (f *fakeMediaFileRepo) Upsert(ctx context.Context, files []entities.MediaFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range files {
		row, ok := f.rows[file.ID]
		if !ok {
			continue
		}
		row.File = file
		f.rows[file.ID] = row
	}
	return nil
}

func (f *fakeMediaFileRepo) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.rows, id)
	}
	return nil
}

// fakeAlternateFileRepo
type fakeAlternateFileRepo struct {
	mu   sync.Mutex
	byMF map[string][]entities.AlternateFile
}

func newFakeAlternateFileRepo() *fakeAlternateFileRepo {
	return &fakeAlternateFileRepo{byMF: make(map[string][]entities.AlternateFile)}
}

func (f *fakeAlternateFileRepo) ListForCatalog(ctx context.Context, catalog string) ([]AlternateFileRow, error) {
	return nil, nil
}

func (f *fakeAlternateFileRepo) ListForMediaFile(ctx context.Context, mediaFileID string) ([]entities.AlternateFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.AlternateFile(nil), f.byMF[mediaFileID]...), nil
}

func (f *fakeAlternateFileRepo) Upsert(ctx context.Context, alternates []entities.AlternateFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range alternates {
		f.byMF[a.MediaFile] = append(f.byMF[a.MediaFile], a)
	}
	return nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func testDeps(t testing.TB) (Deps, *fakeMediaFileRepo, *fakeAlternateFileRepo, *fakeMediaItemRepo, *fakeFileStore, *fakeFileStore) {
	t.Helper()
	local := newFakeFileStore()
	remote := newFakeFileStore()
	mediaFiles := newFakeMediaFileRepo()
	alternates := newFakeAlternateFileRepo()
	items := &fakeMediaItemRepo{}

	deps := Deps{
		MediaItems:     items,
		MediaFiles:     mediaFiles,
		AlternateFiles: alternates,
		Catalogs:       fakeCatalogRepo{catalogs: []string{"cat1"}},
		SavedSearches:  &fakeSavedSearchRepo{},
		Locks:          locks.New(1),
		TempDir:        t.TempDir(),
		Stores: Stores{
			Storages: fakeStorageRepo{},
			Local:    local,
			Temp:     newFakeFileStore(),
			NewRemote: func(st entities.Storage) (storage.FileStore, error) {
				return remote, nil
			},
		},
	}
	return deps, mediaFiles, alternates, items, local, remote
}
