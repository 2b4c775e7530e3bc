package geometry

import (
	"image"
	"log/slog"
)

// Point is a location in reference-frame units. It is only turned into an
// absolute screen coordinate by a Normalizer.
type Point struct {
	X, Y int
}

// ReferenceFrame is the resolution all configured coordinates were authored against.
type ReferenceFrame struct {
	Width  int
	Height int
}

// DefaultReference is the 1920x1080 authoring frame.
var DefaultReference = ReferenceFrame{Width: 1920, Height: 1080}

// Rect returns the reference frame as a rectangle anchored at the origin.
func (r ReferenceFrame) Rect() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// Source reports a candidate active rectangle. Sources are tried in order.
type Source interface {
	Name() string
	ActiveRect() (image.Rectangle, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc struct {
	Label string
	Fn    func() (image.Rectangle, error)
}

func (s SourceFunc) Name() string                         { return s.Label }
func (s SourceFunc) ActiveRect() (image.Rectangle, error) { return s.Fn() }

// Normalizer maps reference-frame points into absolute screen coordinates of the
// currently active geometry. The geometry is re-derived on every call so window
// moves and resolution changes are picked up immediately.
type Normalizer struct {
	ref     ReferenceFrame
	sources []Source
	logger  *slog.Logger
}

// NewNormalizer constructs a normalizer. With no sources the platform defaults are used.
func NewNormalizer(ref ReferenceFrame, logger *slog.Logger, sources ...Source) *Normalizer {
	if ref.Width <= 0 || ref.Height <= 0 {
		ref = DefaultReference
	}
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Normalizer{ref: ref, sources: sources, logger: logger}
}

// Reference returns the configured reference frame.
func (n *Normalizer) Reference() ReferenceFrame { return n.ref }

// ActiveGeometry returns the first usable rectangle reported by the sources,
// falling back to the reference frame itself.
func (n *Normalizer) ActiveGeometry() image.Rectangle {
	for _, s := range n.sources {
		r, err := s.ActiveRect()
		if err != nil {
			if n.logger != nil {
				n.logger.Debug("geometry source failed", "source", s.Name(), "error", err)
			}
			continue
		}
		if r.Dx() <= 0 || r.Dy() <= 0 {
			continue
		}
		return r
	}
	return n.ref.Rect()
}

// Normalize converts p to absolute coordinates: origin + p * active / reference.
func (n *Normalizer) Normalize(p Point) image.Point {
	return n.normalizeIn(p, n.ActiveGeometry())
}

// NormalizeSize scales an extent given in reference units.
func (n *Normalizer) NormalizeSize(w, h int) (int, int) {
	a := n.ActiveGeometry()
	return w * a.Dx() / n.ref.Width, h * a.Dy() / n.ref.Height
}

// NormalizeRect converts a reference-frame rectangle centred at c with the given
// size into an absolute rectangle using a single geometry query.
func (n *Normalizer) NormalizeRect(c Point, w, h int) image.Rectangle {
	a := n.ActiveGeometry()
	center := n.normalizeIn(c, a)
	sw := w * a.Dx() / n.ref.Width
	sh := h * a.Dy() / n.ref.Height
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	tl := image.Pt(center.X-sw/2, center.Y-sh/2)
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(sw, sh))}
}

func (n *Normalizer) normalizeIn(p Point, a image.Rectangle) image.Point {
	return image.Point{
		X: a.Min.X + p.X*a.Dx()/n.ref.Width,
		Y: a.Min.Y + p.Y*a.Dy()/n.ref.Height,
	}
}

// Fixed returns a source that always reports r. Useful for tests and the probe command.
func Fixed(r image.Rectangle) Source {
	return SourceFunc{Label: "fixed", Fn: func() (image.Rectangle, error) { return r, nil }}
}
