package pipeline

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/locks"
)

// jpegQuality is used for every encoded thumbnail/reencode; the source
// originals are kept untouched, so this only affects derived bytes.
const jpegQuality = 90

// decodeImage decodes the image at path using the standard library's
// registered decoders (jpeg/png/gif via the blank imports above).
// RAW/HEIC sources are handled upstream by the extractor's metadata
// pass only — their alternates are not image-decoded here, matching
// scope: this decodes thumbnail/reencode sources, not every format a
// camera can produce.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, coreerrors.IoError(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.CodeUnsupportedMedia, err, "decode source image")
	}
	return img, nil
}

// resizeToFit scales src so its longest edge is target pixels, using
// CatmullRom (bicubic) interpolation.
func resizeToFit(src image.Image, target int) image.Image {
	bounds := src.Bounds()
	w, h := fitDimensions(bounds.Dx(), bounds.Dy(), target)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// cropResizeSocial center-crops src to the social-card aspect ratio and
// scales it to exactly locks.SocialCardWidth x locks.SocialCardHeight.
func cropResizeSocial(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	targetRatio := float64(locks.SocialCardWidth) / float64(locks.SocialCardHeight)
	srcRatio := float64(w) / float64(h)

	crop := bounds
	switch {
	case srcRatio > targetRatio:
		newW := int(float64(h) * targetRatio)
		offset := (w - newW) / 2
		crop = image.Rect(bounds.Min.X+offset, bounds.Min.Y, bounds.Min.X+offset+newW, bounds.Max.Y)
	case srcRatio < targetRatio:
		newH := int(float64(w) / targetRatio)
		offset := (h - newH) / 2
		crop = image.Rect(bounds.Min.X, bounds.Min.Y+offset, bounds.Max.X, bounds.Min.Y+offset+newH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, locks.SocialCardWidth, locks.SocialCardHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// encodeJPEG writes img to path as a jpegQuality-percent JPEG.
func encodeJPEG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return coreerrors.IoError(err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return coreerrors.IoError(err)
	}
	return nil
}
