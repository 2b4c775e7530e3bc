package detect

import (
	"math"

	"github.com/soocke/pixel-assist-go/domain/capture"
)

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxDeviation(a, b capture.ColorRGB) int {
	return max(absInt(a.R-b.R), absInt(a.G-b.G), absInt(a.B-b.B))
}

// WithinTolerance is the strict per-channel law: every |a-b| <= tol.
// Unknown never matches.
func WithinTolerance(a, b capture.ColorRGB, tol int) bool {
	if !a.Known() || !b.Known() {
		return false
	}
	return maxDeviation(a, b) <= tol
}

// Similar accepts a per-channel match, a Euclidean distance within tol*1.7, or a
// mean brightness difference within tol.
func Similar(a, b capture.ColorRGB, tol int) bool {
	if WithinTolerance(a, b, tol) {
		return true
	}
	if !a.Known() || !b.Known() {
		return false
	}
	dr, dg, db := float64(a.R-b.R), float64(a.G-b.G), float64(a.B-b.B)
	if math.Sqrt(dr*dr+dg*dg+db*db) <= float64(tol)*1.7 {
		return true
	}
	ba := float64(a.R+a.G+a.B) / 3
	bb := float64(b.R+b.G+b.B) / 3
	return math.Abs(ba-bb) <= float64(tol)
}

// ColorConfidence is max(0, 100 - maxDev*100/tol). With tol 0 an exact match
// scores 100 and anything else 0.
func ColorConfidence(a, b capture.ColorRGB, tol int) float64 {
	if !a.Known() || !b.Known() {
		return 0
	}
	dev := maxDeviation(a, b)
	if tol <= 0 {
		if dev == 0 {
			return 100
		}
		return 0
	}
	return math.Max(0, 100-float64(dev)*100/float64(tol))
}
