package detect

import "github.com/soocke/pixel-assist-go/domain/capture"

// Analysis counts the geometric features found in a grayscale region.
type Analysis struct {
	Horizontal int
	Vertical   int
	Corners    int
	Bounded    int
	Rectangles int
}

// Analyze runs the line, corner and bounded-area heuristics over g.
func Analyze(g capture.Grid, t Thresholds) Analysis {
	w, h := g.Width(), g.Height()
	gray := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = g.Gray(x, y)
		}
	}
	var a Analysis
	a.Horizontal = horizontalLines(gray, w, h, t)
	a.Vertical = verticalLines(gray, w, h, t)
	a.Corners = corners(gray, w, h, t)
	a.Bounded = boundedAreas(gray, w, h, t)
	if a.Corners >= t.CornersPerRect {
		a.Rectangles++
	}
	a.Rectangles += a.Bounded
	return a
}

func (t Thresholds) contrasty(v int) bool { return v < t.LowCut || v > t.HighCut }

func horizontalLines(gray []int, w, h int, t Thresholds) int {
	need := float64(w) * t.HorizontalRatio
	found := 0
	for y := t.EdgeMargin; y < h-t.EdgeMargin; y++ {
		run, best := 0, 0
		for x := 0; x < w; x++ {
			if t.contrasty(gray[y*w+x]) {
				run++
				best = max(best, run)
			} else {
				run = 0
			}
		}
		if best > 0 && float64(best) >= need {
			found++
		}
	}
	return found
}

func verticalLines(gray []int, w, h int, t Thresholds) int {
	need := float64(h) * t.VerticalRatio
	found := 0
	for x := t.EdgeMargin; x < w-t.EdgeMargin; x++ {
		run, best := 0, 0
		for y := 0; y < h; y++ {
			if t.contrasty(gray[y*w+x]) {
				run++
				best = max(best, run)
			} else {
				run = 0
			}
		}
		if best > 0 && float64(best) >= need {
			found++
		}
	}
	return found
}

func corners(gray []int, w, h int, t Thresholds) int {
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if absInt(gray[i-1]-gray[i+1]) > t.CornerContrast && absInt(gray[i-w]-gray[i+w]) > t.CornerContrast {
				n++
			}
		}
	}
	return n
}

func boundedAreas(gray []int, w, h int, t Thresholds) int {
	n := 0
	for y := t.GridMargin; y < h-t.GridMargin; y += t.GridStep {
		for x := t.GridMargin; x < w-t.GridMargin; x += t.GridStep {
			if bounded(gray, w, h, x, y, t) {
				n++
			}
		}
	}
	return min(n, t.MaxBoundedAreas)
}

var probeDirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

func bounded(gray []int, w, h, sx, sy int, t Thresholds) bool {
	start := gray[sy*w+sx]
	found := 0
	for _, d := range probeDirs {
		x, y := sx, sy
		for i := 0; i < t.ProbeLength; i++ {
			x += d[0]
			y += d[1]
			if x < 0 || x >= w || y < 0 || y >= h {
				break
			}
			if absInt(gray[y*w+x]-start) > t.BoundaryContrast {
				found++
				break
			}
		}
	}
	return found >= t.MinBoundaries
}
