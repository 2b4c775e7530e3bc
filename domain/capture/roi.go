package capture

import "image"

// CenteredRect returns the size x size rectangle centred at c, clamped to bounds
// and guaranteed to be at least 1x1 when c lies inside bounds.
func CenteredRect(c image.Point, w, h int, bounds image.Rectangle) image.Rectangle {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	r := image.Rect(c.X-w/2, c.Y-h/2, c.X-w/2+w, c.Y-h/2+h)
	return r.Intersect(bounds)
}

// ClipToScreen trims r to the backend's screen so regions that cross a screen
// edge are still captured. r is returned unchanged when the bounds are unknown.
func ClipToScreen(b Backend, r image.Rectangle) image.Rectangle {
	screen, err := b.Bounds()
	if err != nil || screen.Empty() {
		return r
	}
	return r.Intersect(screen)
}

// UnionRect grows a bounding rectangle. Empty inputs are ignored.
func UnionRect(acc, r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return acc
	}
	if acc.Empty() {
		return r
	}
	return acc.Union(r)
}
