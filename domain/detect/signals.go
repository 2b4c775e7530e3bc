package detect

import (
	"fmt"
	"image"

	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/geometry"
)

// env carries per-evaluation collaborators into signals.
type env struct {
	mapper     Mapper
	sampler    capture.Sampler
	cursor     CursorReader
	thresholds Thresholds
}

// Signal is one piece of visual evidence. The set of implementations is closed:
// ColorPoint, ColorZone, GeometricPattern and CursorShape.
type Signal interface {
	Kind() string
	region(m Mapper) image.Rectangle
	evaluate(e *env) SignalResult
}

// Region reports the absolute screen rectangle s samples.
func Region(s Signal, m Mapper) image.Rectangle { return s.region(m) }

// ColorPoint matches one pixel with the per-channel law.
type ColorPoint struct {
	Point     geometry.Point
	Expected  capture.ColorRGB
	Tolerance int
}

func (ColorPoint) Kind() string { return "color_point" }

func (s ColorPoint) region(m Mapper) image.Rectangle {
	p := m.Normalize(s.Point)
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}
}

func (s ColorPoint) evaluate(e *env) SignalResult {
	got := e.sampler.SamplePixel(e.mapper.Normalize(s.Point))
	res := SignalResult{Kind: s.Kind(), Detail: fmt.Sprintf("rgb=%d,%d,%d", got.R, got.G, got.B)}
	if WithinTolerance(got, s.Expected, s.Tolerance) {
		res.Matched = true
		res.Confidence = ColorConfidence(got, s.Expected, s.Tolerance)
	}
	return res
}

// ColorZone samples a square zone at a stride and counts similar points.
type ColorZone struct {
	Center     geometry.Point
	Size       int
	Expected   capture.ColorRGB
	Tolerance  int
	Step       int
	MinMatches int
}

func (ColorZone) Kind() string { return "color_zone" }

func (s ColorZone) region(m Mapper) image.Rectangle {
	return m.NormalizeRect(s.Center, s.Size, s.Size)
}

func (s ColorZone) evaluate(e *env) SignalResult {
	res := SignalResult{Kind: s.Kind()}
	g := e.sampler.SampleRegion(s.region(e.mapper))
	step := max(s.Step, 1)
	var matches, checked int
	var sum float64
	for y := 0; y < g.Height(); y += step {
		for x := 0; x < g.Width(); x += step {
			c := g.At(x, y)
			if !c.Known() {
				continue
			}
			checked++
			if Similar(c, s.Expected, s.Tolerance) {
				matches++
				sum += ColorConfidence(c, s.Expected, s.Tolerance)
			}
		}
	}
	threshold := ZoneThreshold(s.MinMatches, matches, sum)
	res.Detail = fmt.Sprintf("matches=%d/%d threshold=%d", matches, checked, threshold)
	if matches > 0 && matches >= threshold {
		res.Matched = true
		res.Confidence = sum / float64(matches)
	}
	return res
}

// ZoneThreshold relaxes minMatches by the mean confidence of the positives:
// max(1, int(minMatches*(1-avg/100))). With no positives it is minMatches.
func ZoneThreshold(minMatches, positives int, confidenceSum float64) int {
	if positives == 0 {
		return minMatches
	}
	avg := confidenceSum / float64(positives)
	return max(1, int(float64(minMatches)*(1-avg/100)))
}

// GeometricPattern looks for input-field outlines in a grayscale region.
type GeometricPattern struct {
	Center             geometry.Point
	Width, Height      int
	MinHorizontalLines int
	MinVerticalLines   int
	MinRectangles      int
}

func (GeometricPattern) Kind() string { return "geometry" }

func (s GeometricPattern) region(m Mapper) image.Rectangle {
	return m.NormalizeRect(s.Center, s.Width, s.Height)
}

func (s GeometricPattern) evaluate(e *env) SignalResult {
	g := e.sampler.SampleRegion(s.region(e.mapper))
	res := SignalResult{Kind: s.Kind()}
	if g.Empty() {
		res.Detail = "no capture"
		return res
	}
	a := Analyze(g, e.thresholds)
	res.Detail = fmt.Sprintf("h=%d v=%d rect=%d", a.Horizontal, a.Vertical, a.Rectangles)
	lines := a.Horizontal >= s.MinHorizontalLines && a.Vertical >= s.MinVerticalLines &&
		(s.MinHorizontalLines > 0 || s.MinVerticalLines > 0)
	rects := s.MinRectangles > 0 && a.Rectangles >= s.MinRectangles
	if lines || rects {
		res.Matched = true
		res.Confidence = 100
		return res
	}
	res.Confidence = lineProgress(a.Horizontal, s.MinHorizontalLines, a.Vertical, s.MinVerticalLines)
	return res
}

func lineProgress(h, minH, v, minV int) float64 {
	part := func(got, want int) float64 {
		if want <= 0 {
			return 1
		}
		return float64(min(got, want)) / float64(want)
	}
	return min((part(h, minH)+part(v, minV))/2*100, 99)
}

// CursorShape matches when the pointer is inside the region with an accepted shape.
type CursorShape struct {
	Center          geometry.Point
	Width, Height   int
	Accepted        []int
	ArrowBrightness int
}

// IDCArrow is the standard arrow cursor id.
const IDCArrow = 32512

func (CursorShape) Kind() string { return "cursor" }

func (s CursorShape) region(m Mapper) image.Rectangle {
	return m.NormalizeRect(s.Center, s.Width, s.Height)
}

func (s CursorShape) evaluate(e *env) SignalResult {
	res := SignalResult{Kind: s.Kind()}
	if e.cursor == nil {
		res.Detail = "no cursor reader"
		return res
	}
	info, err := e.cursor.Cursor()
	if err != nil || !info.Visible {
		res.Detail = "cursor hidden"
		return res
	}
	res.Detail = fmt.Sprintf("shape=%d pos=%d,%d", info.ShapeID, info.Pos.X, info.Pos.Y)
	r := s.region(e.mapper)
	// inclusive bounds
	if info.Pos.X < r.Min.X || info.Pos.X > r.Max.X || info.Pos.Y < r.Min.Y || info.Pos.Y > r.Max.Y {
		return res
	}
	accepted := false
	for _, id := range s.Accepted {
		if id == info.ShapeID {
			accepted = true
			break
		}
	}
	if !accepted {
		return res
	}
	if info.ShapeID == IDCArrow {
		c := e.sampler.SamplePixel(info.Pos)
		if !c.Known() || c.Brightness() <= s.ArrowBrightness {
			return res
		}
	}
	res.Matched = true
	res.Confidence = 100
	return res
}

var (
	_ Signal = ColorPoint{}
	_ Signal = ColorZone{}
	_ Signal = GeometricPattern{}
	_ Signal = CursorShape{}
)
