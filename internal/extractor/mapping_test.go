package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapExif_Version2MapsCoreFields(t *testing.T) {
	raw := `{
		"XMP:Title": "Sunset",
		"XMP:Description": "",
		"EXIF:ImageDescription": "A nice sunset",
		"EXIF:Make": "NIKON CORPORATION",
		"EXIF:Model": "D850",
		"EXIF:GPSLatitude": 40.7128,
		"EXIF:GPSLatitudeRef": "N",
		"EXIF:GPSLongitude": 74.0060,
		"EXIF:GPSLongitudeRef": "W",
		"XMP:Orientation": "top-left",
		"XMP:Rating": 4
	}`

	m, err := MapExif(ParseVersionCurrent, []byte(raw), "image/jpeg")
	require.NoError(t, err)

	require.NotNil(t, m.Title)
	assert.Equal(t, "Sunset", *m.Title)

	require.NotNil(t, m.Description)
	assert.Equal(t, "A nice sunset", *m.Description)

	require.NotNil(t, m.Make)
	assert.Equal(t, "Nikon", *m.Make)

	require.NotNil(t, m.Latitude)
	assert.InDelta(t, 40.7128, *m.Latitude, 0.0001)

	require.NotNil(t, m.Longitude)
	assert.InDelta(t, -74.0060, *m.Longitude, 0.0001)

	require.NotNil(t, m.Orientation)
	assert.Equal(t, 1, *m.Orientation)

	require.NotNil(t, m.Rating)
	assert.Equal(t, 4, *m.Rating)
}

func TestMapExif_VideoForcesOrientationOne(t *testing.T) {
	m, err := MapExif(ParseVersionCurrent, []byte(`{}`), "video/mp4")
	require.NoError(t, err)
	require.NotNil(t, m.Orientation)
	assert.Equal(t, 1, *m.Orientation)
}

func TestMapExif_UnknownVersionDegradesToEmpty(t *testing.T) {
	m, err := MapExif(ParseVersionUnknown, []byte(`{"XMP:Title":"x"}`), "image/jpeg")
	require.NoError(t, err)
	assert.Nil(t, m.Title)
}

func TestMapExif_RatingFromPercentWhenXMPAbsent(t *testing.T) {
	m, err := MapExif(ParseVersionCurrent, []byte(`{"EXIF:RatingPercent": 60}`), "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, m.Rating)
	assert.Equal(t, 3, *m.Rating)
}

func TestParseRating_ClampsToFiveStars(t *testing.T) {
	high := 9.0
	r, ok := parseRating(&high, nil)
	assert.True(t, ok)
	assert.Equal(t, 5, r)
}

func TestPrettyMake_KnownAndUnknown(t *testing.T) {
	assert.Equal(t, "Nikon", prettyMake("NIKON"))
	assert.Equal(t, "Sony", prettyMake("SONY"))
	assert.Equal(t, "Acme Cameras", prettyMake("Acme Cameras"))
}

func TestParseOrientation_IntegerAndLabel(t *testing.T) {
	o, ok := parseOrientation([]byte(`3`))
	assert.True(t, ok)
	assert.Equal(t, 3, o)

	o, ok = parseOrientation([]byte(`"right-bottom"`))
	assert.True(t, ok)
	assert.Equal(t, 7, o)

	_, ok = parseOrientation([]byte(`"nonsense"`))
	assert.False(t, ok)
}

func TestParseShutterSpeed_FractionAndPlain(t *testing.T) {
	v, ok := parseShutterSpeed([]byte(`"1/250"`))
	assert.True(t, ok)
	assert.InDelta(t, 1.0/250.0, v, 0.00001)

	v, ok = parseShutterSpeed([]byte(`2.5`))
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
}

func TestGPSSign_NegatesForSouthAndWest(t *testing.T) {
	assert.Equal(t, -10.0, gpsSign(10, "S"))
	assert.Equal(t, -10.0, gpsSign(10, "w"))
	assert.Equal(t, 10.0, gpsSign(10, "N"))
	assert.Equal(t, 10.0, gpsSign(10, ""))
}

func TestLeadingFloat_ParsesPrefixedMeasurement(t *testing.T) {
	v, ok := leadingFloat("95.9 m Above Sea Level")
	assert.True(t, ok)
	assert.InDelta(t, 95.9, v, 0.001)

	_, ok = leadingFloat("Above Sea Level")
	assert.False(t, ok)
}

func TestResolveTimezone_OverridesAndFallback(t *testing.T) {
	zone, ok := ResolveTimezone(-0.1, 51.5)
	assert.True(t, ok)
	assert.Equal(t, "Europe/London", zone)

	zone, ok = ResolveTimezone(150, 0)
	assert.True(t, ok)
	assert.Equal(t, "Etc/GMT-10", zone)

	_, ok = ResolveTimezone(200, 0)
	assert.False(t, ok)
}
