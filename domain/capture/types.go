package capture

import (
	"errors"
	"image"
	"time"
)

// ErrSamplingUnavailable reports that no screen capture mechanism could be used.
var ErrSamplingUnavailable = errors.New("capture: sampling unavailable")

// ColorRGB is an 8-bit color. Components outside 0..255 mark the Unknown sentinel.
type ColorRGB struct {
	R, G, B int
}

// Unknown is returned for failed or off-screen samples. It never matches anything.
var Unknown = ColorRGB{R: -1, G: -1, B: -1}

// RGB builds a known color.
func RGB(r, g, b uint8) ColorRGB { return ColorRGB{R: int(r), G: int(g), B: int(b)} }

// Known reports whether c carries a real sample.
func (c ColorRGB) Known() bool {
	return c.R >= 0 && c.R <= 255 && c.G >= 0 && c.G <= 255 && c.B >= 0 && c.B <= 255
}

// Brightness is the mean of the three channels.
func (c ColorRGB) Brightness() int { return (c.R + c.G + c.B) / 3 }

// Sampler reads screen colors at absolute coordinates.
type Sampler interface {
	SamplePixel(p image.Point) ColorRGB
	SampleRegion(r image.Rectangle) Grid
}

// Backend is the OS capture mechanism behind a sampler. Capture returns an image
// whose bounds start at 0,0 and span r's size.
type Backend interface {
	Capture(r image.Rectangle) (*image.RGBA, error)
	Pixel(p image.Point) (ColorRGB, error)
	Bounds() (image.Rectangle, error)
}

// Stats summarises sampler behaviour for instrumentation.
type Stats struct {
	Captures   uint64
	PixelReads uint64
	Reuses     uint64
	Failures   uint64
	AvgCapture time.Duration
	LastError  string
}
