package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/turahe/mediacore/internal/coreerrors"
	respath "github.com/turahe/mediacore/internal/domain/path"
)

// ensureLocalCopy guarantees row's original bytes exist on local disk
// and returns that path. Concurrent calls for the same MediaFile share
// one pull through the op cache; each handler calls it once per task and
// reuses the path for every alternate it builds. The local cache is checked first, then the
// catalog's remote store; either way the copy lands in the temp store
// since row's own bytes may be required by more than one alternate
// build in flight.
func ensureLocalCopy(ctx context.Context, ops *MediaFileOps, row MediaFileRow) (string, error) {
	return ops.cache.EnsureLocal(ctx, func(ctx context.Context) (string, error) {
		path := row.Path.File(row.File.FileName)

		tmp, err := tempFilePath(ops.tempDir, path)
		if err != nil {
			return "", err
		}

		if ok, err := ops.local.Exists(ctx, path); err == nil && ok {
			if err := ops.local.Pull(ctx, path, tmp); err != nil {
				return "", err
			}
			return tmp, nil
		}

		remote, err := ops.stores.Remote(ctx, row.Path.Catalog)
		if err != nil {
			return "", err
		}
		if err := remote.Pull(ctx, path, tmp); err != nil {
			return "", err
		}
		return tmp, nil
	})
}

// tempFilePath builds a collision-free scratch path under dir for path,
// preserving its extension so downstream decoders/ffmpeg can sniff the
// format from the file name when they need to.
func tempFilePath(dir string, path respath.FilePath) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", coreerrors.IoError(err)
	}
	name := path.Catalog + "-" + path.Item + "-" + path.File + "-" + path.FileName
	return filepath.Join(dir, name), nil
}

// newMediaFileOps builds the per-task MediaFileOps a single MediaFile's
// alternate builds share, keyed to the op cache its MediaItemLock owns.
func newMediaFileOps(stores Stores, cache opCache, tempDir string) *MediaFileOps {
	return &MediaFileOps{cache: cache, local: stores.Local, tempDir: tempDir, stores: stores}
}

// MediaFileOps bundles the per-call collaborators ensureLocalCopy and
// the alternate builders need: the op cache that memoizes/serializes
// concurrent access to the same MediaFile's bytes, the local/temp
// stores, and a way to mint a credentialed remote client.
type MediaFileOps struct {
	cache   opCache
	local   fileStoreReader
	tempDir string
	stores  Stores
}

// opCache is the subset of locks.MediaFileOpCache this package depends
// on, kept as an interface so tests can use a trivial fake instead of
// pulling in the singleflight-backed real cache.
type opCache interface {
	EnsureLocal(ctx context.Context, compute func(ctx context.Context) (string, error)) (string, error)
	Decode(ctx context.Context, compute func(ctx context.Context) (any, error)) (any, error)
	Resize(ctx context.Context, size int, compute func(ctx context.Context) (any, error)) (any, error)
	ResizeSocial(ctx context.Context, compute func(ctx context.Context) (any, error)) (any, error)
}

type fileStoreReader interface {
	Exists(ctx context.Context, path respath.FilePath) (bool, error)
	Pull(ctx context.Context, path respath.FilePath, target string) error
}
