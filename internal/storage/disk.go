package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turahe/mediacore/internal/coreerrors"
	respath "github.com/turahe/mediacore/internal/domain/path"
)

// DiskStore backs both the Local and Temp stores: a directory
// hierarchy mirroring the path model, rooted at Root. Testing short-
// circuits Push/Delete to no-ops so tests don't touch the filesystem
// outside of fixtures they set up themselves.
type DiskStore struct {
	Root    string
	Testing bool
}

// NewLocal roots a DiskStore at the configured local cache directory.
func NewLocal(root string, testing bool) *DiskStore {
	return &DiskStore{Root: root, Testing: testing}
}

// NewTemp roots a DiskStore at the configured temp scratch directory.
func NewTemp(root string, testing bool) *DiskStore {
	return &DiskStore{Root: root, Testing: testing}
}

func (d *DiskStore) localPath(p respath.ResourcePath) string {
	parts := append([]string{d.Root}, p.PathParts()...)
	return filepath.Join(parts...)
}

func (d *DiskStore) Exists(ctx context.Context, path respath.FilePath) (bool, error) {
	_, err := os.Stat(d.localPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, coreerrors.IoError(err)
}

// ListFiles walks the directory under prefix (or the whole root if nil)
// and returns every regular file's resource path and byte size.
func (d *DiskStore) ListFiles(ctx context.Context, prefix respath.ResourcePath) (map[string]int64, error) {
	files := make(map[string]int64)

	var root string
	if prefix != nil {
		root = d.localPath(prefix)
	} else {
		root = d.Root
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, coreerrors.IoError(err)
	}
	if !info.IsDir() {
		if prefix != nil {
			files[prefix.RemotePath()] = info.Size()
		}
		return files, nil
	}

	err = filepath.Walk(root, func(walked string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, walked)
		if err != nil {
			return err
		}
		remote := filepath.ToSlash(rel)
		parts := strings.Split(remote, "/")
		if _, parseErr := respath.Parse(strings.Join(parts, "/")); parseErr == nil {
			files[remote] = info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, coreerrors.IoError(err)
	}
	return files, nil
}

func (d *DiskStore) Pull(ctx context.Context, path respath.FilePath, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return coreerrors.IoError(err)
	}
	if err := copyFile(d.localPath(path), target); err != nil {
		return coreerrors.IoError(err)
	}
	return nil
}

func (d *DiskStore) Push(ctx context.Context, source string, path respath.FilePath, mimetype string) error {
	if d.Testing {
		return nil
	}
	target := d.localPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return coreerrors.IoError(err)
	}
	if err := copyFile(source, target); err != nil {
		return coreerrors.IoError(err)
	}
	return nil
}

// CopyFromTemp moves an HTTP-upload temp file into this store,
// attempting a hard link before falling back to a full copy.
func (d *DiskStore) CopyFromTemp(ctx context.Context, tempFile string, path respath.FilePath) error {
	if d.Testing {
		return nil
	}
	target := d.localPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return coreerrors.IoError(err)
	}
	if err := os.Link(tempFile, target); err == nil {
		return nil
	}
	if err := copyFile(tempFile, target); err != nil {
		return coreerrors.IoError(err)
	}
	return nil
}

func (d *DiskStore) Delete(ctx context.Context, path respath.ResourcePath) error {
	if d.Testing {
		return nil
	}
	local := d.localPath(path)
	info, err := os.Stat(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return coreerrors.IoError(err)
	}
	if info.IsDir() {
		if err := os.RemoveAll(local); err != nil {
			return coreerrors.IoError(err)
		}
		return nil
	}
	if err := os.Remove(local); err != nil {
		return coreerrors.IoError(err)
	}
	return nil
}

// Prune recursively removes empty directories under path, walking back
// up toward Root until it finds a non-empty ancestor or reaches Root
// itself.
func (d *DiskStore) Prune(ctx context.Context, path respath.ResourcePath) error {
	local := d.localPath(path)
	if _, err := prunePath(local, d.Testing); err != nil {
		return coreerrors.IoError(err)
	}

	current := local
	for {
		parent := filepath.Dir(current)
		if parent == d.Root || parent == current {
			break
		}
		entries, err := os.ReadDir(parent)
		if err != nil {
			break
		}
		if len(entries) != 0 {
			break
		}
		if d.Testing {
			break
		}
		if err := os.Remove(parent); err != nil {
			break
		}
		current = parent
	}
	return nil
}

// prunePath removes path if it is an empty directory tree (recursing
// first), reporting whether it was pruned.
func prunePath(path string, testing bool) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	canPrune := true
	for _, entry := range entries {
		if entry.IsDir() {
			pruned, err := prunePath(filepath.Join(path, entry.Name()), testing)
			if err != nil {
				return false, err
			}
			if !pruned {
				canPrune = false
			}
		} else {
			canPrune = false
		}
	}

	if canPrune {
		if testing {
			return false, nil
		}
		_ = os.Remove(path)
	}
	return canPrune, nil
}

func copyFile(source, target string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
