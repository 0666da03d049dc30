package pipeline

import (
	"strings"

	"github.com/turahe/mediacore/internal/domain/entities"
)

// thumbnailSizes are the thumbnail longest-edge sizes every image and
// video alternate set includes, smallest first; fitDimensions keeps the
// source's aspect ratio.
var thumbnailSizes = []int{150, 300, 600, 1200}

// AlternateSpec describes one alternate a fully processed MediaFile is
// expected to have.
type AlternateSpec struct {
	Type     entities.AlternateFileType
	Mimetype string
	Width    int
	Height   int
}

// Matches reports whether an existing, fulfilled AlternateFile already
// satisfies spec.
func (s AlternateSpec) Matches(a entities.AlternateFile) bool {
	return a.Type == s.Type && a.Mimetype == s.Mimetype && a.Width == s.Width && a.Height == s.Height
}

// alternatesForMediaFile returns every alternate a fully processed file
// of this mimetype must have: images get a thumbnail ladder plus a
// jpeg reencode when the source isn't already jpeg; videos get a
// poster-frame thumbnail ladder plus an mp4 reencode when the source
// isn't already mp4.
func alternatesForMediaFile(file entities.MediaFile) []AlternateSpec {
	var specs []AlternateSpec

	switch mimeGroup(file.Mimetype) {
	case "image":
		for _, size := range thumbnailSizes {
			w, h := fitDimensions(file.Width, file.Height, size)
			specs = append(specs, AlternateSpec{Type: entities.AlternateThumbnail, Mimetype: "image/jpeg", Width: w, Height: h})
		}
		if file.Mimetype != "image/jpeg" {
			specs = append(specs, AlternateSpec{Type: entities.AlternateReencode, Mimetype: "image/jpeg", Width: file.Width, Height: file.Height})
		}
	case "video":
		for _, size := range thumbnailSizes {
			w, h := fitDimensions(file.Width, file.Height, size)
			specs = append(specs, AlternateSpec{Type: entities.AlternateThumbnail, Mimetype: "image/jpeg", Width: w, Height: h})
		}
		if file.Mimetype != "video/mp4" {
			specs = append(specs, AlternateSpec{Type: entities.AlternateReencode, Mimetype: "video/mp4", Width: file.Width, Height: file.Height})
		}
	}

	return specs
}

// storeLocally decides which store a newly created alternate's bytes
// belong in: thumbnails are small and served constantly, so they live
// in the local cache; reencodes are full-size derived media and belong
// in the remote store like the original.
func storeLocally(t entities.AlternateFileType) bool {
	return t == entities.AlternateThumbnail
}

func mimeGroup(mimetype string) string {
	if idx := strings.IndexByte(mimetype, '/'); idx >= 0 {
		return mimetype[:idx]
	}
	return mimetype
}

// fitDimensions scales w×h so its longest edge equals target, preserving
// aspect ratio, with a floor of 1px. A non-positive source size (not yet
// known) falls back to a square target×target box.
func fitDimensions(w, h, target int) (int, int) {
	if w <= 0 || h <= 0 {
		return target, target
	}
	if w >= h {
		scaled := int(float64(h) * float64(target) / float64(w))
		if scaled < 1 {
			scaled = 1
		}
		return target, scaled
	}
	scaled := int(float64(w) * float64(target) / float64(h))
	if scaled < 1 {
		scaled = 1
	}
	return scaled, target
}
