package entities

import (
	"time"

	"github.com/turahe/mediacore/internal/domain/overlay"
)

// MediaItemOverlay carries one overlay.Field per metadata field a user
// can override relative to the selected MediaFile. A field is Undefined
// wherever it equals the file's value (spec invariant 3); Resolve reads
// the effective value.
type MediaItemOverlay struct {
	FileName     overlay.Field[string]
	Title        overlay.Field[string]
	Description  overlay.Field[string]
	Label        overlay.Field[string]
	Category     overlay.Field[string]
	Location     overlay.Field[string]
	City         overlay.Field[string]
	State        overlay.Field[string]
	Country      overlay.Field[string]
	Make         overlay.Field[string]
	Model        overlay.Field[string]
	Lens         overlay.Field[string]
	Photographer overlay.Field[string]
	ShutterSpeed overlay.Field[string]
	Orientation  overlay.Field[int]
	ISO          overlay.Field[int]
	Rating       overlay.Field[int]
	Longitude    overlay.Field[float64]
	Latitude     overlay.Field[float64]
	Altitude     overlay.Field[float64]
	Aperture     overlay.Field[float64]
	FocalLength  overlay.Field[float64]
	Taken        overlay.Field[time.Time]
}

// MediaItem is the user-facing unit of media: a logical photo or video
// that, over its lifetime, may have several uploaded MediaFiles, exactly
// one of which is currently selected.
type MediaItem struct {
	ID          string  `json:"id" db:"id"`
	Catalog     string  `json:"catalog" db:"catalog"`
	Deleted     bool    `json:"deleted" db:"deleted"`
	Created     time.Time `json:"created" db:"created"`
	Updated     time.Time `json:"updated" db:"updated"`
	Datetime    time.Time `json:"datetime" db:"datetime"`
	TakenZone   *string `json:"taken_zone,omitempty" db:"taken_zone"`
	Public      bool    `json:"public" db:"public"`
	SelectedFile *string `json:"media_file,omitempty" db:"media_file"`

	Overlay MediaItemOverlay `json:"-"`
}

// ResolvedMetadata computes the read-overlay (invariant 3) for every
// metadata field, given the currently selected MediaFile. Callers
// present these values, never the raw overlay, to anything outside the
// persistence layer.
func (m MediaItem) ResolvedMetadata(file MediaFile) Metadata {
	return Metadata{
		Title:        resolveOptional(m.Overlay.Title, file.Title),
		Description:  resolveOptional(m.Overlay.Description, file.Description),
		Label:        resolveOptional(m.Overlay.Label, file.Label),
		Category:     resolveOptional(m.Overlay.Category, file.Category),
		Taken:        resolveOptionalTime(m.Overlay.Taken, file.Taken),
		TakenZone:    m.TakenZone,
		Longitude:    resolveOptionalFloat(m.Overlay.Longitude, file.Longitude),
		Latitude:     resolveOptionalFloat(m.Overlay.Latitude, file.Latitude),
		Altitude:     resolveOptionalFloat(m.Overlay.Altitude, file.Altitude),
		Location:     resolveOptional(m.Overlay.Location, file.Location),
		City:         resolveOptional(m.Overlay.City, file.City),
		State:        resolveOptional(m.Overlay.State, file.State),
		Country:      resolveOptional(m.Overlay.Country, file.Country),
		Orientation:  resolveOptionalInt(m.Overlay.Orientation, file.Orientation),
		Make:         resolveOptional(m.Overlay.Make, file.Make),
		Model:        resolveOptional(m.Overlay.Model, file.Model),
		Lens:         resolveOptional(m.Overlay.Lens, file.Lens),
		Photographer: resolveOptional(m.Overlay.Photographer, file.Photographer),
		Aperture:     resolveOptionalFloat(m.Overlay.Aperture, file.Aperture),
		ShutterSpeed: resolveOptional(m.Overlay.ShutterSpeed, file.ShutterSpeed),
		ISO:          resolveOptionalInt(m.Overlay.ISO, file.ISO),
		FocalLength:  resolveOptionalFloat(m.Overlay.FocalLength, file.FocalLength),
		Rating:       resolveOptionalInt(m.Overlay.Rating, file.Rating),
	}
}

func resolveOptional(item overlay.Field[string], fileValue *string) *string {
	var fv string
	if fileValue != nil {
		fv = *fileValue
	}
	result := overlay.Resolve(item, fv)
	if result == "" {
		return nil
	}
	return &result
}

func resolveOptionalInt(item overlay.Field[int], fileValue *int) *int {
	var fv int
	if fileValue != nil {
		fv = *fileValue
	}
	result := overlay.Resolve(item, fv)
	if item.IsNull() || (item.IsUndefined() && fileValue == nil) {
		return nil
	}
	return &result
}

func resolveOptionalFloat(item overlay.Field[float64], fileValue *float64) *float64 {
	var fv float64
	if fileValue != nil {
		fv = *fileValue
	}
	result := overlay.Resolve(item, fv)
	if item.IsNull() || (item.IsUndefined() && fileValue == nil) {
		return nil
	}
	return &result
}

func resolveOptionalTime(item overlay.Field[time.Time], fileValue *time.Time) *time.Time {
	var fv time.Time
	if fileValue != nil {
		fv = *fileValue
	}
	result := overlay.Resolve(item, fv)
	if item.IsNull() || (item.IsUndefined() && fileValue == nil) {
		return nil
	}
	return &result
}

// ResolvedDatetime implements invariant 4: interpret the resolved `taken`
// value at taken_zone (falling back to UTC), converted to UTC; otherwise
// fall back to Created.
func (m MediaItem) ResolvedDatetime(file MediaFile, loc *time.Location) time.Time {
	resolved := m.ResolvedMetadata(file)
	if resolved.Taken == nil {
		return m.Created
	}
	if loc == nil {
		loc = time.UTC
	}
	t := *resolved.Taken
	inLoc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return inLoc.UTC()
}
