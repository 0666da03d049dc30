package extractor

import (
	"strconv"
	"strings"
	"time"

	"github.com/turahe/mediacore/internal/domain/entities"
)

// exifDateLayouts covers both the ISO-ish sidecar format this extractor
// writes back out and exiftool's native "%Y:%m:%d %H:%M:%S" layout.
var exifDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006:01:02 15:04:05",
}

func parseExifDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range exifDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSubSeconds reads a fractional-second suffix like "123" or "50"
// (exiftool's SubSecTimeOriginal) as a decimal fraction: "5" -> 0.5.
func parseSubSeconds(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	frac, ok := leadingFloat("0." + s)
	if !ok {
		return 0, false
	}
	return time.Duration(frac * float64(time.Second)), true
}

func ignoreEmpty(s string, ok bool) *string {
	if !ok || s == "" {
		return nil
	}
	return &s
}

func ptrFloat(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func ptrInt(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}

// mapVersion2 implements the current exiftool `-g` grouped key layout.
func mapVersion2(exif rawExif, isImage bool) entities.Metadata {
	m := entities.Metadata{}

	m.Title = ignoreEmpty(exif.str("XMP:Title"))
	m.Description = ignoreEmpty(exif.str("XMP:Description", "EXIF:ImageDescription", "IPTC:Caption-Abstract"))
	m.Label = ignoreEmpty(exif.str("XMP:Label"))
	m.Category = ignoreEmpty(exif.str("IPTC:Category"))

	if taken, zone := parseTaken(exif); taken != nil {
		m.Taken = taken
		_ = zone
	}

	if lat, ok := exif.float("Composite:GPSLatitude"); ok {
		m.Latitude = ptrFloat(lat, true)
	} else if lat, ok := exif.float("EXIF:GPSLatitude"); ok {
		ref, _ := exif.str("EXIF:GPSLatitudeRef")
		m.Latitude = ptrFloat(gpsSign(lat, ref), true)
	}

	if lon, ok := exif.float("Composite:GPSLongitude"); ok {
		m.Longitude = ptrFloat(lon, true)
	} else if lon, ok := exif.float("EXIF:GPSLongitude"); ok {
		ref, _ := exif.str("EXIF:GPSLongitudeRef")
		m.Longitude = ptrFloat(gpsSign(lon, ref), true)
	}

	if alt, ok := exif.float("Composite:GPSAltitude"); ok {
		m.Altitude = ptrFloat(alt, true)
	} else if alt, ok := exif.float("EXIF:GPSAltitude"); ok {
		m.Altitude = ptrFloat(alt, true)
	}

	m.Location = ignoreEmpty(exif.str("IPTC:Location", "IPTC:Sub-location"))
	m.City = ignoreEmpty(exif.str("IPTC:City"))
	m.State = ignoreEmpty(exif.str("IPTC:Province-State"))
	m.Country = ignoreEmpty(exif.str("IPTC:Country-PrimaryLocationName"))

	if isImage {
		if raw, ok := exif.raw("XMP:Orientation"); ok {
			if o, ok := parseOrientation(raw); ok {
				m.Orientation = ptrInt(o, true)
			}
		}
	} else {
		m.Orientation = ptrInt(1, true)
	}

	if make, ok := exif.str("EXIF:Make", "XMP:AndroidManufacturer"); ok {
		pretty := prettyMake(make)
		m.Make = &pretty
	}
	m.Model = ignoreEmpty(exif.str("EXIF:Model"))
	m.Lens = ignoreEmpty(exif.str("EXIF:LensModel", "Composite:LensID"))
	m.Photographer = ignoreEmpty(exif.str("IPTC:By-line", "EXIF:Artist"))

	if raw, ok := exif.raw("EXIF:ShutterSpeedValue", "EXIF:ExposureTime"); ok {
		if v, ok := parseShutterSpeed(raw); ok {
			s := formatShutterSpeed(v)
			m.ShutterSpeed = &s
		}
	}

	if aperture, ok := exif.float("EXIF:FNumber", "Composite:Aperture"); ok {
		m.Aperture = ptrFloat(aperture, true)
	}
	if iso, ok := exif.float("EXIF:ISO"); ok {
		m.ISO = ptrInt(int(iso), true)
	}
	if fl, ok := exif.float("EXIF:FocalLength", "Composite:FocalLength35efl"); ok {
		m.FocalLength = ptrFloat(fl, true)
	}

	var xmpRating, ratingPercent *float64
	if v, ok := exif.float("XMP:Rating"); ok {
		xmpRating = &v
	}
	if v, ok := exif.float("EXIF:RatingPercent"); ok {
		ratingPercent = &v
	}
	if r, ok := parseRating(xmpRating, ratingPercent); ok {
		m.Rating = ptrInt(r, true)
	}

	return m
}

// mapVersion1 is the flat-key variant used by legacy rows, addressed
// without group prefixes. It maps title, description, label, category,
// taken, GPS position, city/state/country, orientation, make and model
// only; location, lens, photographer, exposure and rating fields stay
// empty for version-1 rows.
func mapVersion1(exif rawExif, isImage bool) entities.Metadata {
	m := entities.Metadata{}

	m.Title = ignoreEmpty(exif.str("Title"))
	m.Description = ignoreEmpty(exif.str("Description", "ImageDescription", "Caption-Abstract"))
	m.Label = ignoreEmpty(exif.str("Label"))
	m.Category = ignoreEmpty(exif.str("Category"))

	if taken, zone := parseTakenFlat(exif); taken != nil {
		m.Taken = taken
		_ = zone
	}

	if lat, ok := exif.float("GPSLatitude"); ok {
		ref, _ := exif.str("GPSLatitudeRef")
		m.Latitude = ptrFloat(gpsSign(lat, ref), true)
	}
	if lon, ok := exif.float("GPSLongitude"); ok {
		ref, _ := exif.str("GPSLongitudeRef")
		m.Longitude = ptrFloat(gpsSign(lon, ref), true)
	}
	if alt, ok := exif.float("GPSAltitude"); ok {
		m.Altitude = ptrFloat(alt, true)
	}

	m.City = ignoreEmpty(exif.str("City"))
	m.State = ignoreEmpty(exif.str("Province-State", "State"))
	m.Country = ignoreEmpty(exif.str("Country-PrimaryLocationName", "Country"))

	if isImage {
		if raw, ok := exif.raw("Orientation"); ok {
			if o, ok := parseOrientation(raw); ok {
				m.Orientation = ptrInt(o, true)
			}
		}
	} else {
		m.Orientation = ptrInt(1, true)
	}

	if make, ok := exif.str("Make"); ok {
		pretty := prettyMake(make)
		m.Make = &pretty
	}
	m.Model = ignoreEmpty(exif.str("Model"))

	return m
}

// MapExif dispatches to the mapper for a given ParseVersion. Unknown
// versions degrade to an empty record rather than failing ingest, per
// the extractor's forward-compatibility contract.
func MapExif(version ParseVersion, data []byte, mimetype string) (entities.Metadata, error) {
	isImage := strings.HasPrefix(mimetype, "image/")

	switch version {
	case ParseVersionCurrent:
		exif, err := parseRawExif(data)
		if err != nil {
			return entities.Metadata{}, err
		}
		return mapVersion2(exif, isImage), nil
	case ParseVersionLegacy:
		exif, err := parseRawExif(data)
		if err != nil {
			return entities.Metadata{}, err
		}
		return mapVersion1(exif, isImage), nil
	default:
		return entities.Metadata{}, nil
	}
}

func parseTaken(exif rawExif) (*time.Time, string) {
	raw, ok := exif.str("EXIF:DateTimeOriginal", "XMP:DateCreated", "Composite:DateTimeCreated")
	if !ok {
		return nil, ""
	}
	t, ok := parseExifDateTime(raw)
	if !ok {
		return nil, ""
	}
	if sub, ok := exif.str("EXIF:SubSecTimeOriginal", "EXIF:SubSecTimeDigitized"); ok {
		if d, ok := parseSubSeconds(sub); ok {
			t = t.Add(d)
		}
	} else if sub, ok := exif.str("EXIF:SubSecCreateDate", "EXIF:SubSecDateTimeOriginal"); ok {
		if idx := strings.IndexByte(sub, '.'); idx >= 0 {
			if d, ok := parseSubSeconds(sub[idx+1:]); ok {
				t = t.Add(d)
			}
		}
	}
	return &t, ""
}

func parseTakenFlat(exif rawExif) (*time.Time, string) {
	raw, ok := exif.str("DateTimeOriginal", "DateCreated", "DateTimeCreated")
	if !ok {
		return nil, ""
	}
	t, ok := parseExifDateTime(raw)
	if !ok {
		return nil, ""
	}
	return &t, ""
}

func formatShutterSpeed(v float64) string {
	if v <= 0 {
		return "0"
	}
	if v < 1 {
		return "1/" + trimFloat(1/v)
	}
	return trimFloat(v)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
