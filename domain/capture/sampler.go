package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const statsLogInterval = 5 * time.Second

// counters are shared by the samplers built on one backend.
type counters struct {
	captures     atomic.Uint64
	pixels       atomic.Uint64
	reuses       atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	lastErr      atomic.Pointer[string]
	lastLog      atomic.Int64
}

func (c *counters) fail(err error) {
	c.failures.Add(1)
	msg := fmt.Errorf("%w: %v", ErrSamplingUnavailable, err).Error()
	c.lastErr.Store(&msg)
}

func (c *counters) snapshot() Stats {
	captures := c.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(c.captureNanos.Load() / captures)
	}
	s := Stats{
		Captures:   captures,
		PixelReads: c.pixels.Load(),
		Reuses:     c.reuses.Load(),
		Failures:   c.failures.Load(),
		AvgCapture: avg,
	}
	if p := c.lastErr.Load(); p != nil {
		s.LastError = *p
	}
	return s
}

func (c *counters) maybeLog(logger *slog.Logger) {
	if logger == nil {
		return
	}
	now := time.Now().UnixNano()
	last := c.lastLog.Load()
	if now-last < int64(statsLogInterval) || !c.lastLog.CompareAndSwap(last, now) {
		return
	}
	s := c.snapshot()
	logger.Debug("sampler.stats",
		"captures", s.Captures,
		"pixel_reads", s.PixelReads,
		"reuses", s.Reuses,
		"failures", s.Failures,
		"avg_capture", s.AvgCapture,
	)
}

// DirectSampler reads every sample straight from the backend.
type DirectSampler struct {
	backend Backend
	logger  *slog.Logger
	stats   *counters
}

// NewDirectSampler constructs a sampler that performs one OS read per sample.
func NewDirectSampler(backend Backend, logger *slog.Logger) *DirectSampler {
	return &DirectSampler{backend: backend, logger: logger, stats: &counters{}}
}

func (s *DirectSampler) SamplePixel(p image.Point) ColorRGB {
	return readPixel(s.backend, s.stats, p)
}

func (s *DirectSampler) SampleRegion(r image.Rectangle) Grid {
	g, _ := captureGrid(s.backend, s.stats, r)
	s.stats.maybeLog(s.logger)
	return g
}

// Stats returns counters accumulated so far.
func (s *DirectSampler) Stats() Stats { return s.stats.snapshot() }

func readPixel(b Backend, c *counters, p image.Point) ColorRGB {
	c.pixels.Add(1)
	col, err := b.Pixel(p)
	if err != nil {
		c.fail(err)
		return Unknown
	}
	return col
}

func captureGrid(b Backend, c *counters, r image.Rectangle) (Grid, *image.RGBA) {
	r = ClipToScreen(b, r)
	if r.Empty() {
		return Grid{}, nil
	}
	start := time.Now()
	img, err := b.Capture(r)
	if err != nil || img == nil {
		if err == nil {
			err = fmt.Errorf("nil frame for %v", r)
		}
		c.fail(err)
		return Grid{}, nil
	}
	c.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	c.captures.Add(1)
	return NewGrid(img, r.Min), img
}

// BitmapSampler captures a region once per tick and serves many samples from it.
// Call Begin before sampling and End afterwards; End recycles the frames.
type BitmapSampler struct {
	backend Backend
	logger  *slog.Logger
	stats   *counters

	mu     sync.Mutex
	frame  Grid
	owned  []*image.RGBA
	active bool
}

// NewBitmapSampler constructs a capture-once sampler.
func NewBitmapSampler(backend Backend, logger *slog.Logger) *BitmapSampler {
	return &BitmapSampler{backend: backend, logger: logger, stats: &counters{}}
}

// Begin captures region. A failed capture leaves the sampler in pass-through mode.
func (s *BitmapSampler) Begin(region image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.active = true
	g, img := captureGrid(s.backend, s.stats, region)
	s.frame = g
	if img != nil {
		s.owned = append(s.owned, img)
	}
}

// End releases the tick's frames back to the frame pool.
func (s *BitmapSampler) End() {
	s.mu.Lock()
	s.releaseLocked()
	s.active = false
	s.mu.Unlock()
	s.stats.maybeLog(s.logger)
}

func (s *BitmapSampler) releaseLocked() {
	for _, img := range s.owned {
		RecycleFrame(img)
	}
	s.owned = s.owned[:0]
	s.frame = Grid{}
}

func (s *BitmapSampler) SamplePixel(p image.Point) ColorRGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.In(s.frame.Bounds()) {
		s.stats.reuses.Add(1)
		o := s.frame.Origin()
		return s.frame.At(p.X-o.X, p.Y-o.Y)
	}
	return readPixel(s.backend, s.stats, p)
}

func (s *BitmapSampler) SampleRegion(r image.Rectangle) Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = ClipToScreen(s.backend, r)
	if sub, ok := s.frame.Sub(r); ok {
		s.stats.reuses.Add(1)
		return sub
	}
	g, img := captureGrid(s.backend, s.stats, r)
	if img != nil && s.active {
		s.owned = append(s.owned, img)
	}
	return g
}

// Stats returns counters accumulated so far.
func (s *BitmapSampler) Stats() Stats { return s.stats.snapshot() }

var (
	_ Sampler = (*DirectSampler)(nil)
	_ Sampler = (*BitmapSampler)(nil)
)
