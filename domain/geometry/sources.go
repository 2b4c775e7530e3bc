package geometry

import (
	"errors"
	"image"
	"sync"

	"github.com/vova616/screenshot"
)

// screenSource reports the primary screen rectangle as seen by the screenshot backend.
func screenSource() Source {
	return SourceFunc{Label: "screen", Fn: func() (image.Rectangle, error) {
		return screenshot.ScreenRect()
	}}
}

// ErrOwnWindow is reported when this process owns the foreground window and no
// other window has been seen yet.
var ErrOwnWindow = errors.New("geometry: foreground window belongs to this process")

// WindowFunc reports the foreground window rectangle and its owning process id.
type WindowFunc func() (image.Rectangle, uint32, error)

// ForeignWindowSource follows the foreground window but ignores windows owned
// by the self process: while one of ours is in front it keeps reporting the
// last foreign window.
type ForeignWindowSource struct {
	label string
	self  uint32
	fn    WindowFunc

	mu   sync.Mutex
	last image.Rectangle
}

func NewForeignWindowSource(label string, self uint32, fn WindowFunc) *ForeignWindowSource {
	return &ForeignWindowSource{label: label, self: self, fn: fn}
}

func (s *ForeignWindowSource) Name() string { return s.label }

func (s *ForeignWindowSource) ActiveRect() (image.Rectangle, error) {
	r, pid, err := s.fn()
	if err != nil {
		return image.Rectangle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pid == s.self {
		if s.last.Empty() {
			return image.Rectangle{}, ErrOwnWindow
		}
		return s.last, nil
	}
	s.last = r
	return r, nil
}
