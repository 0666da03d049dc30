// Package extractor turns raw exiftool/ffprobe output into the typed
// metadata record attached to a MediaFile.
package extractor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseVersion selects which raw-JSON key layout rawExif maps onto the
// typed Exif record. Unknown versions degrade to empty metadata rather
// than failing ingest.
type ParseVersion int

const (
	ParseVersionUnknown ParseVersion = 0
	ParseVersionLegacy  ParseVersion = 1
	ParseVersionCurrent ParseVersion = 2
)

// rawExif is the subset of exiftool's `-g` grouped JSON object this
// extractor understands, covering both the flattened legacy layout and
// the grouped current one. Fields are read defensively: exiftool emits
// numbers, strings, or group-prefixed variants depending on camera
// make, so every accessor tolerates a missing or wrongly-typed value.
// parseRawExif keeps every top-level key and also adds each member of a
// group object under a "Group:Key" name.
type rawExif map[string]json.RawMessage

func parseRawExif(data []byte) (rawExif, error) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, err
	}
	out := make(rawExif, len(flat))
	for key, value := range flat {
		out[key] = value
		var members map[string]json.RawMessage
		if json.Unmarshal(value, &members) != nil {
			continue
		}
		for member, v := range members {
			out[key+":"+member] = v
		}
	}
	return out, nil
}

func (r rawExif) str(keys ...string) (string, bool) {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s, true
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), true
		}
	}
	return "", false
}

func (r rawExif) float(keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, ok := leadingFloat(s); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func (r rawExif) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := r[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

// leadingFloat parses the leading float-looking prefix of a string,
// e.g. "95.9 m Above Sea Level" -> 95.9.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	for i, r := range s {
		if r == '+' || r == '-' {
			if i != 0 {
				break
			}
			end = i + 1
			continue
		}
		if r == '.' {
			end = i + 1
			continue
		}
		if r >= '0' && r <= '9' {
			seenDigit = true
			end = i + 1
			continue
		}
		break
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// prettyMake collapses EXIF manufacturer strings to a common display
// form; cameras outside this table pass through unchanged.
func prettyMake(name string) string {
	switch name {
	case "NIKON CORPORATION", "NIKON":
		return "Nikon"
	case "SAMSUNG", "Samsung Techwin":
		return "Samsung"
	case "OLYMPUS IMAGING CORP.":
		return "Olympus"
	case "EASTMAN KODAK COMPANY":
		return "Kodak"
	case "SONY":
		return "Sony"
	default:
		return name
	}
}

// parseOrientation accepts either a 1-8 integer or an EXIF orientation
// label string ("top-left" .. "left-bottom").
func parseOrientation(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n >= 1 && n <= 8 {
			return n, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	switch strings.ToLower(s) {
	case "top-left":
		return 1, true
	case "top-right":
		return 2, true
	case "bottom-right":
		return 3, true
	case "bottom-left":
		return 4, true
	case "left-top":
		return 5, true
	case "right-top":
		return 6, true
	case "right-bottom":
		return 7, true
	case "left-bottom":
		return 8, true
	default:
		return 0, false
	}
}

// parseShutterSpeed accepts a bare number, a numeric-looking string, or
// a "1/N" fraction, returning the fraction as a plain float.
func parseShutterSpeed(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if before, after, ok := strings.Cut(s, "/"); ok {
		num, err1 := strconv.ParseFloat(strings.TrimSpace(before), 64)
		den, err2 := strconv.ParseFloat(strings.TrimSpace(after), 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den, true
		}
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return 0, false
}

// parseRating normalizes a rating to the [0,5] scale used by MediaItem:
// XMP.Rating clamped directly, or EXIF.RatingPercent mapped by
// round(5 * p/100).
func parseRating(xmpRating *float64, ratingPercent *float64) (int, bool) {
	if xmpRating != nil {
		r := int(*xmpRating)
		if r < 0 {
			r = 0
		}
		if r > 5 {
			r = 5
		}
		return r, true
	}
	if ratingPercent != nil {
		r := int(math.Round(5 * *ratingPercent / 100))
		if r < 0 {
			r = 0
		}
		if r > 5 {
			r = 5
		}
		return r, true
	}
	return 0, false
}

// gpsSign negates a coordinate when its EXIF reference letter indicates
// south or west. refLetter is case-insensitive; only the first
// character is consulted.
func gpsSign(value float64, refLetter string) float64 {
	if refLetter == "" {
		return value
	}
	switch strings.ToUpper(refLetter[:1]) {
	case "S", "W":
		return -math.Abs(value)
	default:
		return math.Abs(value)
	}
}
