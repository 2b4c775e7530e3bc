package capture

import "image"

// Grid is a read-only view over captured pixels. Coordinates passed to At and
// Gray are relative to the grid's top-left corner.
type Grid struct {
	img    *image.RGBA
	view   image.Rectangle // within img bounds
	origin image.Point     // absolute screen position of view.Min
}

// NewGrid wraps img, treating its bounds' top-left as the absolute origin.
func NewGrid(img *image.RGBA, origin image.Point) Grid {
	if img == nil {
		return Grid{}
	}
	return Grid{img: img, view: img.Bounds(), origin: origin}
}

func (g Grid) Width() int  { return g.view.Dx() }
func (g Grid) Height() int { return g.view.Dy() }

// Empty reports whether the grid holds no pixels (failed capture).
func (g Grid) Empty() bool { return g.img == nil || g.view.Empty() }

// Origin is the absolute screen position of the grid's (0,0).
func (g Grid) Origin() image.Point { return g.origin }

// Bounds returns the absolute screen rectangle covered by the grid.
func (g Grid) Bounds() image.Rectangle {
	return image.Rectangle{Min: g.origin, Max: g.origin.Add(g.view.Size())}
}

// At returns the color at (x,y) or Unknown when out of range.
func (g Grid) At(x, y int) ColorRGB {
	if g.img == nil || x < 0 || y < 0 || x >= g.view.Dx() || y >= g.view.Dy() {
		return Unknown
	}
	i := g.img.PixOffset(g.view.Min.X+x, g.view.Min.Y+y)
	p := g.img.Pix[i : i+3 : i+3]
	return ColorRGB{R: int(p[0]), G: int(p[1]), B: int(p[2])}
}

// Gray returns Rec.601 integer luma at (x,y), or -1 when out of range.
func (g Grid) Gray(x, y int) int {
	c := g.At(x, y)
	if !c.Known() {
		return -1
	}
	return (299*c.R + 587*c.G + 114*c.B) / 1000
}

// Sub returns the part of the grid covering the absolute rectangle r. The
// second result is false when r is not fully contained.
func (g Grid) Sub(r image.Rectangle) (Grid, bool) {
	if g.Empty() || !r.In(g.Bounds()) {
		return Grid{}, false
	}
	off := r.Min.Sub(g.origin)
	view := image.Rectangle{Min: g.view.Min.Add(off), Max: g.view.Min.Add(off).Add(r.Size())}
	return Grid{img: g.img, view: view, origin: r.Min}, true
}

// Image copies the grid into a new zero-origin RGBA image.
func (g Grid) Image() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, g.Width(), g.Height()))
	if g.Empty() {
		return out
	}
	for y := 0; y < g.Height(); y++ {
		src := g.img.PixOffset(g.view.Min.X, g.view.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+g.Width()*4], g.img.Pix[src:src+g.Width()*4])
	}
	return out
}
