package entities

import "time"

// MediaFile is one uploaded version of a MediaItem's content. It is
// immutable once all of its alternates are built; file-derived metadata
// lives here and the owning MediaItem only overrides what it differs on.
type MediaFile struct {
	ID             string     `json:"id" db:"id"`
	MediaItem      string     `json:"media_item" db:"media"`
	Uploaded       time.Time  `json:"uploaded" db:"uploaded"`
	ProcessVersion int        `json:"process_version" db:"process_version"`
	FileName       string     `json:"file_name" db:"file_name"`
	FileSize       int64      `json:"file_size" db:"file_size"`
	Mimetype       string     `json:"mimetype" db:"mimetype"`
	Width          int        `json:"width" db:"width"`
	Height         int        `json:"height" db:"height"`
	Duration       *float64   `json:"duration,omitempty" db:"duration"`
	FrameRate      *float64   `json:"frame_rate,omitempty" db:"frame_rate"`
	BitRate        *float64   `json:"bit_rate,omitempty" db:"bit_rate"`
	NeedsMetadata  bool       `json:"needs_metadata" db:"needs_metadata"`
	Stored         *time.Time `json:"stored,omitempty" db:"stored"`
	Metadata
}

// IsCurrent reports whether this file is fully processed and eligible to
// be selected as a MediaItem's media_file (invariant 1: process_version
// > 0 and stored is set).
func (f MediaFile) IsCurrent() bool {
	return f.ProcessVersion > 0 && f.Stored != nil
}

// AlternateFileType distinguishes the two alternate kinds a MediaFile can
// have: small browsing thumbnails and full re-encoded playback copies.
type AlternateFileType string

const (
	AlternateThumbnail AlternateFileType = "thumbnail"
	AlternateReencode  AlternateFileType = "reencode"
)

// AlternateFile is a derived rendition of a MediaFile: a thumbnail at a
// given size, or a full reencode into a browser-friendly format.
type AlternateFile struct {
	ID        string            `json:"id" db:"id"`
	MediaFile string            `json:"media_file" db:"media_file"`
	Type      AlternateFileType `json:"type" db:"type"`
	Mimetype  string            `json:"mimetype" db:"mimetype"`
	Width     int               `json:"width" db:"width"`
	Height    int               `json:"height" db:"height"`
	Duration  *float64          `json:"duration,omitempty" db:"duration"`
	FrameRate *float64          `json:"frame_rate,omitempty" db:"frame_rate"`
	BitRate   *float64          `json:"bit_rate,omitempty" db:"bit_rate"`
	FileSize  int64             `json:"file_size" db:"file_size"`
	FileName  string            `json:"file_name" db:"file_name"`
	Local     bool              `json:"local" db:"local"`
	Stored    *time.Time        `json:"stored,omitempty" db:"stored"`
	Required  bool              `json:"required" db:"required"`
}

// Fulfilled reports whether the alternate's bytes have been written to
// their designated store.
func (a AlternateFile) Fulfilled() bool {
	return a.Stored != nil
}
