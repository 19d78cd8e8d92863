package media

import (
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Default display size for images whose dimensions cannot be read.
const (
	DefaultWidth  = 100
	DefaultHeight = 100
)

// Probe decodes the image read from r and returns its size after EXIF
// orientation is applied.
func Probe(r io.Reader) (int, int, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("media: probe: %w", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Fit scales w×h down to a width of max, keeping the aspect ratio.
// Sizes already within max, or a non-positive max, are returned as is.
func Fit(w, h, max int) (int, int) {
	if max <= 0 || w <= max {
		return w, h
	}
	return max, h * max / w
}
