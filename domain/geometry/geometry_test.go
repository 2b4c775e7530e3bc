package geometry

import (
	"errors"
	"image"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func failing() Source {
	return SourceFunc{Label: "broken", Fn: func() (image.Rectangle, error) {
		return image.Rectangle{}, errors.New("boom")
	}}
}

func TestNormalizeHalfSizeWindow(t *testing.T) {
	n := NewNormalizer(DefaultReference, discardLogger, Fixed(image.Rect(0, 0, 960, 540)))
	assert.Equal(t, image.Pt(960, 540), n.Normalize(Point{1920, 1080}))
	assert.Equal(t, image.Pt(0, 0), n.Normalize(Point{0, 0}))
	assert.Equal(t, image.Pt(50, 25), n.Normalize(Point{100, 50}))
}

func TestNormalizeAddsOrigin(t *testing.T) {
	n := NewNormalizer(DefaultReference, discardLogger, Fixed(image.Rect(100, 200, 1060, 740)))
	assert.Equal(t, image.Pt(100, 200), n.Normalize(Point{0, 0}))
	assert.Equal(t, image.Pt(1060, 740), n.Normalize(Point{1920, 1080}))
}

func TestNormalizeTruncates(t *testing.T) {
	n := NewNormalizer(DefaultReference, discardLogger, Fixed(image.Rect(0, 0, 1366, 768)))
	// 1405*1366/1920 = 999.6, 1033*768/1080 = 734.5
	assert.Equal(t, image.Pt(999, 734), n.Normalize(Point{1405, 1033}))
}

func TestFallsThroughFailedSources(t *testing.T) {
	n := NewNormalizer(DefaultReference, discardLogger, failing(), Fixed(image.Rectangle{}), Fixed(image.Rect(0, 0, 3840, 2160)))
	assert.Equal(t, image.Rect(0, 0, 3840, 2160), n.ActiveGeometry())
	assert.Equal(t, image.Pt(200, 200), n.Normalize(Point{100, 100}))
}

func TestFallsBackToReference(t *testing.T) {
	n := NewNormalizer(DefaultReference, nil, failing())
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), n.ActiveGeometry())
	assert.Equal(t, image.Pt(42, 17), n.Normalize(Point{42, 17}))
}

func TestNormalizeSizeAndRect(t *testing.T) {
	n := NewNormalizer(DefaultReference, discardLogger, Fixed(image.Rect(0, 0, 960, 540)))
	w, h := n.NormalizeSize(900, 300)
	assert.Equal(t, 450, w)
	assert.Equal(t, 150, h)

	r := n.NormalizeRect(Point{100, 100}, 20, 20)
	assert.Equal(t, image.Rect(45, 45, 55, 55), r)

	tiny := n.NormalizeRect(Point{100, 100}, 1, 1)
	assert.Equal(t, 1, tiny.Dx())
}

func TestInvalidReferenceDefaults(t *testing.T) {
	n := NewNormalizer(ReferenceFrame{}, nil, Fixed(image.Rect(0, 0, 1920, 1080)))
	assert.Equal(t, DefaultReference, n.Reference())
}

func TestForeignWindowSourceIgnoresOwnWindows(t *testing.T) {
	const self = 42
	game := image.Rect(0, 0, 1920, 1080)
	overlay := image.Rect(1500, 900, 1700, 1000)
	front, pid := game, uint32(7)
	src := NewForeignWindowSource("foreground_window", self, func() (image.Rectangle, uint32, error) {
		return front, pid, nil
	})
	n := NewNormalizer(DefaultReference, discardLogger, src, Fixed(image.Rect(0, 0, 100, 100)))

	assert.Equal(t, image.Pt(1405, 1033), n.Normalize(Point{1405, 1033}))

	// Clicking an overlay puts it in front; the input point must not move into it.
	front, pid = overlay, self
	assert.Equal(t, image.Pt(1405, 1033), n.Normalize(Point{1405, 1033}))
	assert.Equal(t, game, n.ActiveGeometry())
}

func TestForeignWindowSourceOwnWindowFirst(t *testing.T) {
	src := NewForeignWindowSource("fg", 1, func() (image.Rectangle, uint32, error) {
		return image.Rect(0, 0, 10, 10), 1, nil
	})
	_, err := src.ActiveRect()
	assert.ErrorIs(t, err, ErrOwnWindow)

	n := NewNormalizer(DefaultReference, discardLogger, src, Fixed(image.Rect(0, 0, 960, 540)))
	assert.Equal(t, image.Rect(0, 0, 960, 540), n.ActiveGeometry(), "falls through to the next source")
}
