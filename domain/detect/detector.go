package detect

import (
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/soocke/pixel-assist-go/domain/capture"
)

// DefaultMaxCaptureArea bounds the single per-evaluation capture (pixels).
const DefaultMaxCaptureArea = 1920 * 1080 / 2

// Detector evaluates profiles against the screen. One Detector serves one
// polling loop; Evaluate calls are serialized.
type Detector struct {
	mu         sync.Mutex
	mapper     Mapper
	sampler    TickSampler
	cursor     CursorReader
	thresholds Thresholds
	maxArea    int
	logger     *slog.Logger
}

// Option customises a Detector.
type Option func(*Detector)

// WithThresholds overrides the geometric heuristics thresholds.
func WithThresholds(t Thresholds) Option { return func(d *Detector) { d.thresholds = t } }

// WithMaxCaptureArea bounds the union capture; larger unions are sampled per signal.
func WithMaxCaptureArea(px int) Option { return func(d *Detector) { d.maxArea = px } }

// NewDetector constructs a detector. cursor may be nil, in which case cursor
// signals never match.
func NewDetector(mapper Mapper, sampler TickSampler, cursor CursorReader, logger *slog.Logger, opts ...Option) *Detector {
	d := &Detector{
		mapper:     mapper,
		sampler:    sampler,
		cursor:     cursor,
		thresholds: DefaultThresholds(),
		maxArea:    DefaultMaxCaptureArea,
		logger:     logger,
	}
	for _, o := range opts {
		o(d)
	}
	d.thresholds = d.thresholds.sanitized()
	return d
}

func (t Thresholds) sanitized() Thresholds {
	def := DefaultThresholds()
	if t.GridStep <= 0 {
		t.GridStep = def.GridStep
	}
	if t.ProbeLength <= 0 {
		t.ProbeLength = def.ProbeLength
	}
	if t.MaxBoundedAreas <= 0 {
		t.MaxBoundedAreas = def.MaxBoundedAreas
	}
	if t.CornersPerRect <= 0 {
		t.CornersPerRect = def.CornersPerRect
	}
	if t.HighCut <= t.LowCut {
		t.LowCut, t.HighCut = def.LowCut, def.HighCut
	}
	if t.EdgeMargin < 0 {
		t.EdgeMargin = def.EdgeMargin
	}
	if t.GridMargin < 0 {
		t.GridMargin = def.GridMargin
	}
	return t
}

// Evaluate samples every signal of p and fuses the verdicts.
func (d *Detector) Evaluate(p *Profile) Result {
	if p == nil || len(p.Signals) == 0 {
		return Result{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var union image.Rectangle
	for _, s := range p.Signals {
		union = capture.UnionRect(union, s.region(d.mapper))
	}
	if union.Dx()*union.Dy() > d.maxArea {
		union = image.Rectangle{}
	}
	d.sampler.Begin(union)
	defer d.sampler.End()

	e := &env{mapper: d.mapper, sampler: d.sampler, cursor: d.cursor, thresholds: d.thresholds}
	results := make([]SignalResult, 0, len(p.Signals))
	for _, s := range p.Signals {
		results = append(results, s.evaluate(e))
	}
	res := Combine(p.Rule, p.Threshold, results)
	if d.logger != nil {
		d.logger.Debug("profile evaluated", "profile", p.Name, "matched", res.Matched, "confidence", res.Confidence)
	}
	return res
}

// Combine fuses signal results. ANY matches on any signal with the maximum
// matched confidence; ALL requires every signal and reports the minimum;
// WEIGHTED compares the mean of matched confidences over all signals with threshold.
func Combine(rule Rule, threshold float64, results []SignalResult) Result {
	out := Result{Signals: results}
	if len(results) == 0 {
		return out
	}
	switch rule {
	case RuleAll:
		lowest := math.Inf(1)
		for _, r := range results {
			if !r.Matched {
				return out
			}
			lowest = math.Min(lowest, r.Confidence)
		}
		out.Matched = true
		out.Confidence = lowest
	case RuleWeighted:
		var sum float64
		for _, r := range results {
			if r.Matched {
				sum += r.Confidence
			}
		}
		out.Confidence = sum / float64(len(results))
		out.Matched = out.Confidence >= threshold
	default:
		for _, r := range results {
			if r.Matched {
				out.Matched = true
				out.Confidence = math.Max(out.Confidence, r.Confidence)
			}
		}
	}
	return out
}
