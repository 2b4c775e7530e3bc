package detect

import (
	"image"
	"strings"
	"time"

	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/geometry"
)

// Rule selects how signal verdicts are fused.
type Rule int

const (
	RuleAny Rule = iota
	RuleAll
	RuleWeighted
)

func (r Rule) String() string {
	switch r {
	case RuleAll:
		return "all"
	case RuleWeighted:
		return "weighted"
	default:
		return "any"
	}
}

// ParseRule maps a config name to a Rule; unknown names fall back to RuleAny.
func ParseRule(s string) Rule {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return RuleAll
	case "weighted":
		return RuleWeighted
	default:
		return RuleAny
	}
}

// Profile is an immutable detection configuration. Replace it wholesale on change.
type Profile struct {
	Name        string
	Signals     []Signal
	Rule        Rule
	Threshold   float64
	Debounce    int
	Interval    time.Duration
	StartActive bool
	Commands    []string
}

// SignalResult is the verdict of one signal.
type SignalResult struct {
	Kind       string
	Matched    bool
	Confidence float64
	Detail     string
}

// Result is the fused verdict of a profile.
type Result struct {
	Matched    bool
	Confidence float64
	Signals    []SignalResult
}

// Mapper converts reference-frame coordinates into absolute screen space.
type Mapper interface {
	Normalize(p geometry.Point) image.Point
	NormalizeRect(c geometry.Point, w, h int) image.Rectangle
}

// TickSampler samples from one capture per evaluation.
type TickSampler interface {
	capture.Sampler
	Begin(region image.Rectangle)
	End()
}

// CursorInfo describes the system pointer.
type CursorInfo struct {
	Visible bool
	ShapeID int // system cursor id such as 32512, 0 when unrecognised
	Pos     image.Point
}

// CursorReader reports the current pointer state.
type CursorReader interface {
	Cursor() (CursorInfo, error)
}

// CursorFunc adapts a function to CursorReader.
type CursorFunc func() (CursorInfo, error)

func (f CursorFunc) Cursor() (CursorInfo, error) { return f() }

// Thresholds tunes the geometric pattern heuristics.
type Thresholds struct {
	LowCut           int
	HighCut          int
	HorizontalRatio  float64
	VerticalRatio    float64
	EdgeMargin       int
	CornerContrast   int
	CornersPerRect   int
	GridStep         int
	GridMargin       int
	ProbeLength      int
	BoundaryContrast int
	MinBoundaries    int
	MaxBoundedAreas  int
}

// DefaultThresholds mirrors config.GeometryConfig defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowCut:           50,
		HighCut:          200,
		HorizontalRatio:  0.4,
		VerticalRatio:    0.3,
		EdgeMargin:       5,
		CornerContrast:   50,
		CornersPerRect:   4,
		GridStep:         20,
		GridMargin:       10,
		ProbeLength:      30,
		BoundaryContrast: 80,
		MinBoundaries:    3,
		MaxBoundedAreas:  2,
	}
}
