package extractor

import (
	"fmt"
	"math"
)

// ResolveTimezone derives an IANA zone name from a GPS coordinate. The
// original implementation this was ported from (tzf_rs) walks a packed
// polygon dataset; no Go package in this module's dependency set offers
// an equivalent offline timezone-polygon lookup, and pulling one in
// would mean vendoring a multi-megabyte geometry dataset for a single
// lookup used once per ingest. This resolver instead buckets by
// 15-degree-wide longitude bands (one per UTC hour) with a handful of
// named-zone overrides for regions whose civil time diverges sharply
// from solar longitude, which is adequate for the resolved zone's only
// consumer: interpreting a local wall-clock timestamp within roughly
// the correct day.
func ResolveTimezone(longitude, latitude float64) (string, bool) {
	if longitude < -180 || longitude > 180 || latitude < -90 || latitude > 90 {
		return "", false
	}

	for _, r := range timezoneOverrides {
		if longitude >= r.minLon && longitude <= r.maxLon && latitude >= r.minLat && latitude <= r.maxLat {
			return r.zone, true
		}
	}

	offset := int(math.Floor((longitude + 7.5) / 15))
	if offset > 12 {
		offset = 12
	}
	if offset < -12 {
		offset = -12
	}
	return offsetZoneName(offset), true
}

type timezoneRegion struct {
	minLon, maxLon float64
	minLat, maxLat float64
	zone           string
}

// timezoneOverrides lists regions where a pure longitude bucket would
// pick the wrong civil zone.
var timezoneOverrides = []timezoneRegion{
	{-10, 2, 49, 61, "Europe/London"},
	{2, 15, 47, 55, "Europe/Berlin"},
	{-125, -114.5, 31, 50, "America/Los_Angeles"},
	{-114.5, -102, 31, 50, "America/Denver"},
	{-102, -87, 24, 50, "America/Chicago"},
	{-87, -66, 24, 48, "America/New_York"},
	{113, 154, -44, -10, "Australia/Sydney"},
	{129, 146, 30, 46, "Asia/Tokyo"},
	{68, 97, 6, 36, "Asia/Kolkata"},
}

// offsetZoneName maps hours-east-of-UTC to the POSIX-inverted Etc/GMT
// name Go's tzdata understands (Etc/GMT-5 is 5 hours *east* of UTC).
func offsetZoneName(hoursEast int) string {
	if hoursEast == 0 {
		return "Etc/UTC"
	}
	if hoursEast > 0 {
		return fmt.Sprintf("Etc/GMT-%d", hoursEast)
	}
	return fmt.Sprintf("Etc/GMT+%d", -hoursEast)
}
