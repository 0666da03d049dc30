// Package storage implements the three FileStore backends media bytes
// move through: the remote S3-compatible object store, the on-disk
// local cache, and the temp scratch area used while a file is being
// processed.
package storage

import (
	"context"

	respath "github.com/turahe/mediacore/internal/domain/path"
)

// FileStore is the capability surface shared by Remote, Local, and
// Temp: list/exists/push/pull/delete/prune, addressed by the path
// model rather than raw strings.
type FileStore interface {
	ListFiles(ctx context.Context, prefix respath.ResourcePath) (map[string]int64, error)
	Exists(ctx context.Context, path respath.FilePath) (bool, error)
	Push(ctx context.Context, source string, path respath.FilePath, mimetype string) error
	Pull(ctx context.Context, path respath.FilePath, target string) error
	Delete(ctx context.Context, path respath.ResourcePath) error
	Prune(ctx context.Context, path respath.ResourcePath) error
}
