//go:build !windows

package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

type screenshotBackend struct{}

// NewBackend returns the platform capture backend.
func NewBackend() Backend { return screenshotBackend{} }

// Available reports whether the screenshot backend can see a screen.
func Available() error {
	if _, err := screenshot.ScreenRect(); err != nil {
		return fmt.Errorf("%w: %v", ErrSamplingUnavailable, err)
	}
	return nil
}

func (screenshotBackend) Bounds() (image.Rectangle, error) { return screenshot.ScreenRect() }

func (b screenshotBackend) Capture(r image.Rectangle) (*image.RGBA, error) {
	screen, err := b.Bounds()
	if err != nil {
		return nil, err
	}
	if !r.In(screen) {
		return nil, fmt.Errorf("capture: rect %v outside screen %v", r, screen)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, err
	}
	if img.Rect.Min != (image.Point{}) {
		// keep the zero-origin contract
		out := acquireFrame(r.Dx(), r.Dy())
		for y := 0; y < r.Dy(); y++ {
			s := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()*4], img.Pix[s:s+r.Dx()*4])
		}
		return out, nil
	}
	return img, nil
}

func (b screenshotBackend) Pixel(p image.Point) (ColorRGB, error) {
	img, err := b.Capture(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	if err != nil {
		return Unknown, err
	}
	c := img.RGBAAt(0, 0)
	return RGB(c.R, c.G, c.B), nil
}
