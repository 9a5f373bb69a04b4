package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultMaxSize bounds the longer edge of conditioning images.
const DefaultMaxSize = 1024

// Align is the dimension granularity the image-to-video model accepts.
const Align = 64

// ErrDegenerateSize is returned when aligning an image would leave a zero-length edge.
var ErrDegenerateSize = errors.New("image too small for the model")

// scaleToFit shrinks (never enlarges) w×h so the longer edge is at most maxSize.
// The shorter edge is truncated, not rounded.
func scaleToFit(w, h, maxSize int) (int, int) {
	if w > h {
		if w > maxSize {
			return maxSize, int(float64(h) * (float64(maxSize) / float64(w)))
		}
		return w, h
	}
	if h > maxSize {
		return int(float64(w) * (float64(maxSize) / float64(h))), maxSize
	}
	return w, h
}

// FitDimensions returns the target size for a w×h image: scaled to maxSize and
// floored to multiples of Align. Either result may be 0 for small inputs.
func FitDimensions(w, h, maxSize int) (int, int) {
	nw, nh := scaleToFit(w, h, maxSize)
	return nw / Align * Align, nh / Align * Align
}

// Resize fits img to the model's accepted domain with a Lanczos filter.
func Resize(img image.Image, maxSize int) (*image.NRGBA, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), maxSize)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d would become %dx%d (edges must reach %dpx)", ErrDegenerateSize, b.Dx(), b.Dy(), w, h, Align)
	}

	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
