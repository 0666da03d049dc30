// Package path implements the resource path sum type used to address
// catalogs, media items, media files, and the files within them, both in
// object storage keys and on the local cache filesystem.
package path

import (
	"path/filepath"
	"strings"

	"github.com/turahe/mediacore/internal/coreerrors"
)

// ResourcePath is implemented by every concrete path kind. Segment count
// alone distinguishes them: 1 is a Catalog, 2 a MediaItem, 3 a MediaFile,
// 4 a File.
type ResourcePath interface {
	PathParts() []string
	LocalPath() string
	RemotePath() string
	String() string
}

// Parse dispatches on the slash-delimited segment count of remote,
// returning UnexpectedPath for anything outside 1-4 segments.
func Parse(remote string) (ResourcePath, error) {
	if remote == "" {
		return nil, coreerrors.UnexpectedPath(remote)
	}
	parts := strings.Split(remote, "/")

	switch len(parts) {
	case 1:
		return CatalogPath{Catalog: parts[0]}, nil
	case 2:
		return MediaItemPath{Catalog: parts[0], Item: parts[1]}, nil
	case 3:
		return MediaFilePath{Catalog: parts[0], Item: parts[1], File: parts[2]}, nil
	case 4:
		return FilePath{Catalog: parts[0], Item: parts[1], File: parts[2], FileName: parts[3]}, nil
	default:
		return nil, coreerrors.UnexpectedPath(remote)
	}
}

func remotePath(parts []string) string {
	return strings.Join(parts, "/")
}

func localPath(parts []string) string {
	return filepath.Join(parts...)
}

// CatalogPath addresses a whole catalog: {catalog}.
type CatalogPath struct {
	Catalog string
}

func (p CatalogPath) PathParts() []string { return []string{p.Catalog} }
func (p CatalogPath) LocalPath() string   { return localPath(p.PathParts()) }
func (p CatalogPath) RemotePath() string  { return remotePath(p.PathParts()) }
func (p CatalogPath) String() string      { return p.RemotePath() }

// MediaItem returns the MediaItemPath for item within this catalog.
func (p CatalogPath) MediaItem(item string) MediaItemPath {
	return MediaItemPath{Catalog: p.Catalog, Item: item}
}

// MediaItemPath addresses one media item: {catalog}/{item}.
type MediaItemPath struct {
	Catalog string
	Item    string
}

func (p MediaItemPath) PathParts() []string { return []string{p.Catalog, p.Item} }
func (p MediaItemPath) LocalPath() string   { return localPath(p.PathParts()) }
func (p MediaItemPath) RemotePath() string  { return remotePath(p.PathParts()) }
func (p MediaItemPath) String() string      { return p.RemotePath() }

// MediaFile returns the MediaFilePath for file within this media item.
func (p MediaItemPath) MediaFile(file string) MediaFilePath {
	return MediaFilePath{Catalog: p.Catalog, Item: p.Item, File: file}
}

// MediaFilePath addresses one upload/version of a media item:
// {catalog}/{item}/{file}.
type MediaFilePath struct {
	Catalog string
	Item    string
	File    string
}

func (p MediaFilePath) PathParts() []string { return []string{p.Catalog, p.Item, p.File} }
func (p MediaFilePath) LocalPath() string   { return localPath(p.PathParts()) }
func (p MediaFilePath) RemotePath() string  { return remotePath(p.PathParts()) }
func (p MediaFilePath) String() string      { return p.RemotePath() }

// File returns the FilePath for a named file stored under this media file
// (the original upload, an alternate, or the metadata sidecar).
func (p MediaFilePath) File(fileName string) FilePath {
	return FilePath{Catalog: p.Catalog, Item: p.Item, File: p.File, FileName: fileName}
}

// FilePath addresses a single stored object:
// {catalog}/{item}/{file}/{file_name}.
type FilePath struct {
	Catalog  string
	Item     string
	File     string
	FileName string
}

func (p FilePath) PathParts() []string {
	return []string{p.Catalog, p.Item, p.File, p.FileName}
}
func (p FilePath) LocalPath() string  { return localPath(p.PathParts()) }
func (p FilePath) RemotePath() string { return remotePath(p.PathParts()) }
func (p FilePath) String() string     { return p.RemotePath() }
