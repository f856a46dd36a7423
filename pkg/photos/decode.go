package photos

import (
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
)

// ThumbnailFactor is the linear downsampling applied to thumbnails.
const ThumbnailFactor = 4

// MaxPixels bounds the decoded size of any photo, checked against the image
// header before the pixels are read.
const MaxPixels = 64 << 20

// EXIF orientation values that need a rotation.
const (
	orientationNormal    = 1
	orientationRotate180 = 3
	orientationRotate90  = 6
	orientationRotate270 = 8
)

// Decode loads the image at ref, rotates it upright according to its EXIF
// orientation and, for thumbnails, downsamples it by ThumbnailFactor.
// Any failure yields (nil, false); the caller simply shows nothing.
func Decode(ref string, thumbnail bool) (image.Image, bool) {
	f, err := os.Open(ref)
	if err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("photo not readable")
		return nil, false
	}
	defer f.Close()

	orientation := readOrientation(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("photo not seekable")
		return nil, false
	}

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("photo not decodable")
		return nil, false
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		log.Debug().Int("width", cfg.Width).Int("height", cfg.Height).Str("ref", ref).Msg("photo too large")
		return nil, false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("photo not seekable")
		return nil, false
	}

	img, err := imaging.Decode(f)
	if err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("photo not decodable")
		return nil, false
	}
	if thumbnail {
		img = downsample(img, ThumbnailFactor)
	}
	return orient(img, orientation), true
}

// readOrientation returns the EXIF orientation tag, or orientationNormal when absent.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if x == nil {
		if err != nil {
			log.Debug().Err(err).Msg("no exif data")
		}
		return orientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return orientationNormal
	}
	v, err := tag.Int(0)
	if err != nil {
		return orientationNormal
	}
	return v
}

func downsample(img image.Image, factor int) image.Image {
	b := img.Bounds()
	w, h := b.Dx()/factor, b.Dy()/factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Box)
}

// orient rotates img clockwise by the amount the orientation tag asks for.
// Mirrored orientations are left as they are.
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case orientationRotate90:
		return imaging.Rotate270(img)
	case orientationRotate180:
		return imaging.Rotate180(img)
	case orientationRotate270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
