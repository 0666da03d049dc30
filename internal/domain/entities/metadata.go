package entities

import "time"

// Metadata is the full set of typed fields the extractor derives from a
// file's EXIF/XMP/IPTC tags and (for video) container probe output. It
// is embedded, field-for-field, in both MediaFile (as the authoritative
// extracted values) and MediaItem (as the user-overridable overlay — see
// package overlay).
type Metadata struct {
	Title        *string    `json:"title,omitempty" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	Label        *string    `json:"label,omitempty" db:"label"`
	Category     *string    `json:"category,omitempty" db:"category"`
	Taken        *time.Time `json:"taken,omitempty" db:"taken"`
	TakenZone    *string    `json:"taken_zone,omitempty" db:"taken_zone"`
	Longitude    *float64   `json:"longitude,omitempty" db:"longitude"`
	Latitude     *float64   `json:"latitude,omitempty" db:"latitude"`
	Altitude     *float64   `json:"altitude,omitempty" db:"altitude"`
	Location     *string    `json:"location,omitempty" db:"location"`
	City         *string    `json:"city,omitempty" db:"city"`
	State        *string    `json:"state,omitempty" db:"state"`
	Country      *string    `json:"country,omitempty" db:"country"`
	Orientation  *int       `json:"orientation,omitempty" db:"orientation"`
	Make         *string    `json:"make,omitempty" db:"make"`
	Model        *string    `json:"model,omitempty" db:"model"`
	Lens         *string    `json:"lens,omitempty" db:"lens"`
	Photographer *string    `json:"photographer,omitempty" db:"photographer"`
	Aperture     *float64   `json:"aperture,omitempty" db:"aperture"`
	ShutterSpeed *string    `json:"shutter_speed,omitempty" db:"shutter_speed"`
	ISO          *int       `json:"iso,omitempty" db:"iso"`
	FocalLength  *float64   `json:"focal_length,omitempty" db:"focal_length"`
	Rating       *int       `json:"rating,omitempty" db:"rating"`
}

// HasGPS reports whether both coordinates needed for timezone lookup are present.
func (m Metadata) HasGPS() bool {
	return m.Longitude != nil && m.Latitude != nil
}
