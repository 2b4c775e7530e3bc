package capture

import (
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthScreen is a fake backend over an in-memory screen.
type synthScreen struct {
	img      *image.RGBA
	captures atomic.Int32
	pixels   atomic.Int32
	fail     bool
}

func newSynthScreen(w, h int, base uint8) *synthScreen {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = base, base, base, 255
	}
	return &synthScreen{img: img}
}

func (s *synthScreen) set(x, y int, c ColorRGB) {
	i := s.img.PixOffset(x, y)
	s.img.Pix[i], s.img.Pix[i+1], s.img.Pix[i+2] = uint8(c.R), uint8(c.G), uint8(c.B)
}

func (s *synthScreen) Bounds() (image.Rectangle, error) { return s.img.Bounds(), nil }

func (s *synthScreen) Capture(r image.Rectangle) (*image.RGBA, error) {
	s.captures.Add(1)
	if s.fail || !r.In(s.img.Bounds()) {
		return nil, errors.New("off screen")
	}
	sub := s.img.SubImage(r).(*image.RGBA)
	return NewGrid(sub, r.Min).Image(), nil
}

func (s *synthScreen) Pixel(p image.Point) (ColorRGB, error) {
	s.pixels.Add(1)
	if s.fail || !p.In(s.img.Bounds()) {
		return Unknown, errors.New("off screen")
	}
	c := s.img.RGBAAt(p.X, p.Y)
	return RGB(c.R, c.G, c.B), nil
}

func TestUnknownNeverKnown(t *testing.T) {
	assert.False(t, Unknown.Known())
	assert.True(t, RGB(0, 0, 0).Known())
	assert.Equal(t, 80, ColorRGB{R: 70, G: 80, B: 90}.Brightness())
}

func TestDirectSamplerPixel(t *testing.T) {
	screen := newSynthScreen(100, 100, 10)
	screen.set(5, 6, ColorRGB{R: 68, G: 80, B: 95})
	s := NewDirectSampler(screen, nil)

	assert.Equal(t, ColorRGB{R: 68, G: 80, B: 95}, s.SamplePixel(image.Pt(5, 6)))
	assert.Equal(t, Unknown, s.SamplePixel(image.Pt(500, 6)))

	st := s.Stats()
	assert.EqualValues(t, 2, st.PixelReads)
	assert.EqualValues(t, 1, st.Failures)
	assert.Contains(t, st.LastError, ErrSamplingUnavailable.Error())
}

func TestDirectSamplerRegionFailureIsEmpty(t *testing.T) {
	screen := newSynthScreen(50, 50, 0)
	screen.fail = true
	s := NewDirectSampler(screen, nil)
	g := s.SampleRegion(image.Rect(0, 0, 10, 10))
	assert.True(t, g.Empty())
	assert.Equal(t, Unknown, g.At(0, 0))
	assert.Equal(t, -1, g.Gray(0, 0))
}

func TestBitmapSamplerReusesCapture(t *testing.T) {
	screen := newSynthScreen(200, 200, 20)
	screen.set(50, 60, ColorRGB{R: 1, G: 2, B: 3})
	s := NewBitmapSampler(screen, nil)

	s.Begin(image.Rect(40, 40, 120, 120))
	assert.Equal(t, ColorRGB{R: 1, G: 2, B: 3}, s.SamplePixel(image.Pt(50, 60)))
	g := s.SampleRegion(image.Rect(45, 55, 55, 65))
	require.False(t, g.Empty())
	assert.Equal(t, image.Pt(45, 55), g.Origin())
	assert.Equal(t, ColorRGB{R: 1, G: 2, B: 3}, g.At(5, 5))
	assert.EqualValues(t, 1, screen.captures.Load())
	assert.EqualValues(t, 0, screen.pixels.Load())

	// outside the tick frame falls back to its own read
	assert.Equal(t, ColorRGB{R: 20, G: 20, B: 20}, s.SamplePixel(image.Pt(150, 150)))
	assert.EqualValues(t, 1, screen.pixels.Load())
	s.End()

	st := s.Stats()
	assert.EqualValues(t, 2, st.Reuses)
	assert.EqualValues(t, 1, st.Captures)
}

func TestBitmapSamplerFailedBeginPassesThrough(t *testing.T) {
	screen := newSynthScreen(20, 20, 30)
	screen.fail = true
	s := NewBitmapSampler(screen, nil)
	s.Begin(image.Rect(10, 10, 15, 15))
	screen.fail = false
	assert.Equal(t, ColorRGB{R: 30, G: 30, B: 30}, s.SamplePixel(image.Pt(1, 1)))
	s.End()
	assert.EqualValues(t, 1, s.Stats().Failures)
}

func TestRegionsAcrossScreenEdgeAreClipped(t *testing.T) {
	screen := newSynthScreen(100, 80, 40)
	screen.set(0, 0, ColorRGB{R: 9, G: 9, B: 9})

	direct := NewDirectSampler(screen, nil)
	g := direct.SampleRegion(image.Rect(-50, -20, 60, 30))
	require.False(t, g.Empty())
	assert.Equal(t, image.Rect(0, 0, 60, 30), g.Bounds())
	assert.Equal(t, ColorRGB{R: 9, G: 9, B: 9}, g.At(0, 0))
	assert.True(t, direct.SampleRegion(image.Rect(200, 200, 220, 220)).Empty())

	bitmap := NewBitmapSampler(screen, nil)
	bitmap.Begin(image.Rect(-350, -50, 550, 250))
	sub := bitmap.SampleRegion(image.Rect(-10, -10, 20, 20))
	require.False(t, sub.Empty())
	assert.Equal(t, image.Rect(0, 0, 20, 20), sub.Bounds())
	bitmap.End()
	assert.EqualValues(t, 2, screen.captures.Load(), "one direct capture and one tick capture")
	assert.EqualValues(t, 1, bitmap.Stats().Reuses)
	assert.Zero(t, bitmap.Stats().Failures)
}

func TestClipToScreen(t *testing.T) {
	screen := newSynthScreen(100, 100, 0)
	assert.Equal(t, image.Rect(0, 0, 50, 50), ClipToScreen(screen, image.Rect(-50, -50, 50, 50)))
	assert.True(t, ClipToScreen(screen, image.Rect(-20, -20, -10, -10)).Empty())
}

func TestGridSubAndGray(t *testing.T) {
	screen := newSynthScreen(10, 10, 0)
	screen.set(3, 4, ColorRGB{R: 255, G: 255, B: 255})
	g := NewGrid(screen.img, image.Pt(100, 100))
	assert.Equal(t, 10, g.Width())
	assert.Equal(t, 255, g.Gray(3, 4))
	assert.Equal(t, 0, g.Gray(0, 0))

	sub, ok := g.Sub(image.Rect(102, 103, 105, 106))
	require.True(t, ok)
	assert.Equal(t, 3, sub.Width())
	assert.Equal(t, ColorRGB{R: 255, G: 255, B: 255}, sub.At(1, 1))
	assert.Equal(t, Unknown, sub.At(3, 0))

	_, ok = g.Sub(image.Rect(95, 95, 105, 105))
	assert.False(t, ok)

	img := sub.Image()
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())
	assert.EqualValues(t, 255, img.RGBAAt(1, 1).R)
}

func TestCenteredRectClamps(t *testing.T) {
	b := image.Rect(0, 0, 100, 100)
	assert.Equal(t, image.Rect(30, 30, 70, 70), CenteredRect(image.Pt(50, 50), 40, 40, b))
	assert.Equal(t, image.Rect(0, 0, 7, 7), CenteredRect(image.Pt(2, 2), 10, 10, b))
	assert.Equal(t, 1, CenteredRect(image.Pt(5, 5), 0, 0, b).Dx())
}

func TestFramePoolReuse(t *testing.T) {
	f := acquireFrame(4, 4)
	require.Len(t, f.Pix, 64)
	RecycleFrame(f)
	g := acquireFrame(2, 2)
	assert.Len(t, g.Pix, 16)
	assert.Equal(t, 8, g.Stride)
	RecycleFrame(nil)
}
