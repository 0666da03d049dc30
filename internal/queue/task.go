// Package queue implements the process-wide, two-lane background task
// runner: a cheap lane (default 3 workers) for ordinary bookkeeping and
// an expensive lane (default 1 worker) for CPU-bound transcodes, plus
// the cron-driven maintenance sweeps and the optional out-of-process
// worker host described for media processing.
package queue

// Task is one unit of work the queue can dispatch. Concrete types below
// mirror the task kinds a running catalog needs; handlers for each are
// registered by name at wiring time (see Queue.RegisterHandler).
type Task interface {
	// Name identifies the task kind for handler lookup, logging and
	// metrics labels.
	Name() string
	// Expensive reports whether this task belongs on the expensive
	// lane. Only video alternate builds are expensive; everything else
	// runs cheap.
	Expensive() bool
}

// ServerStartup re-derives queue state after a process restart: it
// requeues deletion of any soft-deleted media and, per catalog, kicks
// off a search refresh, a media-processing sweep and a prune pass.
type ServerStartup struct{}

func (ServerStartup) Name() string    { return "ServerStartup" }
func (ServerStartup) Expensive() bool { return false }

// DeleteMedia removes the given media items and everything derived from
// them (rows plus remote/local/temp bytes).
type DeleteMedia struct {
	MediaIDs []string
}

func (DeleteMedia) Name() string    { return "DeleteMedia" }
func (DeleteMedia) Expensive() bool { return false }

// UpdateSearches recomputes saved-search membership for one catalog.
type UpdateSearches struct {
	Catalog string
}

func (UpdateSearches) Name() string    { return "UpdateSearches" }
func (UpdateSearches) Expensive() bool { return false }

// VerifyStorage cross-checks a catalog's DB rows against what actually
// exists in the remote/local/temp stores, repairing drift it can and
// reporting what it can't.
type VerifyStorage struct {
	Catalog     string
	DeleteFiles bool
}

func (VerifyStorage) Name() string    { return "VerifyStorage" }
func (VerifyStorage) Expensive() bool { return false }

// PruneMediaFiles removes MediaFile rows (and their bytes) that are no
// longer the selected file for their media item.
type PruneMediaFiles struct {
	Catalog string
}

func (PruneMediaFiles) Name() string    { return "PruneMediaFiles" }
func (PruneMediaFiles) Expensive() bool { return false }

// ProcessMedia scans a catalog's current media files and enqueues
// whatever work each one is still missing: upload, metadata extraction,
// or alternate builds.
type ProcessMedia struct {
	Catalog string
}

func (ProcessMedia) Name() string    { return "ProcessMedia" }
func (ProcessMedia) Expensive() bool { return false }

// ExtractMetadata runs the exiftool/ffprobe extractor against one media
// file and applies the result.
type ExtractMetadata struct {
	MediaFile string
}

func (ExtractMetadata) Name() string    { return "ExtractMetadata" }
func (ExtractMetadata) Expensive() bool { return false }

// UploadMediaFile pushes a media file's original bytes to the catalog's
// remote store.
type UploadMediaFile struct {
	MediaFile string
}

func (UploadMediaFile) Name() string    { return "UploadMediaFile" }
func (UploadMediaFile) Expensive() bool { return false }

// BuildAlternate builds every missing alternate of the given mime-type
// group ("image" or "video") for one media file. Video alternates are
// transcodes and run on the expensive lane; image alternates are cheap
// resizes.
type BuildAlternate struct {
	MediaFile string
	MimeGroup string
}

func (BuildAlternate) Name() string      { return "BuildAlternate" }
func (t BuildAlternate) Expensive() bool { return t.MimeGroup == "video" }
