package view

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-assist-go/domain/geometry"
	"github.com/soocke/pixel-assist-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// OverlaySpec describes one overlay panel.
type OverlaySpec struct {
	Name     string
	Title    string
	Anchor   geometry.Point // reference-frame units
	Columns  int
	Commands []string
}

// OverlayCallbacks are invoked on the Tk thread.
type OverlayCallbacks struct {
	Send         func(command string)
	PointerEnter func()
	PointerLeave func()
}

const (
	wantNone int32 = iota
	wantShow
	wantHide
)

// leaveGrace absorbs the Leave/Enter pair Tk emits when the pointer moves
// between the panel and one of its buttons.
const leaveGrace = 120 * time.Millisecond

// OverlayWindow is a borderless topmost panel of command buttons. Show and Hide
// may be called from any goroutine; Apply performs them on the Tk thread.
type OverlayWindow struct {
	spec   OverlaySpec
	cb     OverlayCallbacks
	place  func(geometry.Point) image.Point
	logger *slog.Logger

	want    atomic.Int32
	win     *ToplevelWidget
	visible bool
	inside  bool
	leaveID string

	// set once the native window refuses activation
	noActivate bool
}

// NewOverlayWindow creates the controller; widgets are built on first Apply.
// place maps the anchor to screen coordinates and may be nil.
func NewOverlayWindow(spec OverlaySpec, cb OverlayCallbacks, place func(geometry.Point) image.Point, logger *slog.Logger) *OverlayWindow {
	if spec.Columns <= 0 {
		spec.Columns = 2
	}
	return &OverlayWindow{spec: spec, cb: cb, place: place, logger: logger}
}

func (w *OverlayWindow) Show() { w.want.Store(wantShow) }
func (w *OverlayWindow) Hide() { w.want.Store(wantHide) }

// Apply flushes the latest requested visibility. Tk thread only.
func (w *OverlayWindow) Apply() {
	switch w.want.Swap(wantNone) {
	case wantShow:
		w.build()
		w.position()
		if !w.visible {
			WmDeiconify(w.win.Window)
			w.visible = true
		}
	case wantHide:
		if w.win != nil && w.visible {
			WmWithdraw(w.win.Window)
			w.visible = false
		}
	}
	// The native window appears after Tk maps it, so keep trying while shown.
	if w.visible && !w.noActivate {
		w.noActivate = preventActivation(w.spec.Title)
		if w.noActivate && w.logger != nil {
			w.logger.Debug("overlay will not take focus", "overlay", w.spec.Name)
		}
	}
}

func (w *OverlayWindow) build() {
	if w.win != nil {
		return
	}
	win := App.Toplevel(Borderwidth(1), Background(theme.ColorOverlayBg))
	win.WmTitle(w.spec.Title)
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-alpha", 0.92)
	WmWithdraw(win.Window)
	w.win = win

	for i, name := range w.spec.Commands {
		name := name
		btn := win.TButton(Txt(name), Style(theme.StyleCommandButton), Command(func() {
			if w.cb.Send != nil {
				w.cb.Send(name)
			}
		}))
		Grid(btn, Row(i/w.spec.Columns), Column(i%w.spec.Columns), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	}
	for c := 0; c < w.spec.Columns; c++ {
		GridColumnConfigure(win.Window, c, Weight(1))
	}
	Bind(win, "<Enter>", Command(w.pointerEnter))
	Bind(win, "<Leave>", Command(w.pointerLeave))
	WmProtocol(win.Window, "WM_DELETE_WINDOW", func() { w.Hide(); w.Apply() })
	if w.logger != nil {
		w.logger.Debug("overlay window built", "overlay", w.spec.Name, "commands", len(w.spec.Commands))
	}
}

func (w *OverlayWindow) position() {
	if w.place == nil || w.win == nil {
		return
	}
	p := w.place(w.spec.Anchor)
	WmGeometry(w.win.Window, fmt.Sprintf("+%d+%d", p.X, p.Y))
}

func (w *OverlayWindow) pointerEnter() {
	if w.leaveID != "" {
		TclAfterCancel(w.leaveID)
		w.leaveID = ""
		return
	}
	if w.inside {
		return
	}
	w.inside = true
	if w.cb.PointerEnter != nil {
		w.cb.PointerEnter()
	}
}

func (w *OverlayWindow) pointerLeave() {
	if !w.inside || w.leaveID != "" {
		return
	}
	w.leaveID = TclAfter(leaveGrace, func() {
		w.leaveID = ""
		w.inside = false
		if w.cb.PointerLeave != nil {
			w.cb.PointerLeave()
		}
	})
}
