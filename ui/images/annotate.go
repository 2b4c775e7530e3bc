package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrEmptyArea is returned when no outline intersects the frame.
var ErrEmptyArea = errors.New("annotate: empty area")

var (
	hitColor  = color.NRGBA{R: 16, G: 185, B: 129, A: 255}
	missColor = color.NRGBA{R: 220, G: 38, B: 38, A: 255}
)

// Outline is one sampled rectangle in frame coordinates.
type Outline struct {
	Rect image.Rectangle
	Hit  bool
}

// Annotate crops frame to the union of the outlines grown by margin and
// draws each outline, green for hits and red for misses. The result has its
// origin at (0,0).
func Annotate(frame image.Image, outlines []Outline, margin int) (*image.NRGBA, error) {
	if frame == nil {
		return nil, ErrEmptyArea
	}
	var area image.Rectangle
	for _, o := range outlines {
		if o.Rect.Empty() {
			continue
		}
		if area.Empty() {
			area = o.Rect
		} else {
			area = area.Union(o.Rect)
		}
	}
	if margin > 0 {
		area = area.Inset(-margin)
	}
	area = area.Intersect(frame.Bounds())
	if area.Empty() {
		return nil, ErrEmptyArea
	}
	out := imaging.Crop(frame, area)
	for _, o := range outlines {
		c := missColor
		if o.Hit {
			c = hitColor
		}
		strokeRect(out, o.Rect.Sub(area.Min), c)
	}
	return out, nil
}

func strokeRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

// ScaleToFit scales src so it fits within maxW x maxH preserving aspect
// ratio. Small probe crops are enlarged so single pixels stay visible.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		if b.Dx()*4 <= maxW && b.Dy()*4 <= maxH {
			return imaging.Resize(src, b.Dx()*4, b.Dy()*4, imaging.NearestNeighbor)
		}
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.NearestNeighbor)
}

// EncodePNG encodes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrEmptyArea
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
