package presenter

import (
	"sync/atomic"
)

// AutomationControl is the engine's global automation flag.
type AutomationControl interface {
	Automation() bool
	SetAutomation(bool)
}

// AutomationView shows the automation flag.
type AutomationView interface {
	SetAutomation(on bool)
}

// AutomationPresenter owns the automation toggle. Flag changes can originate
// from the control window, the tray or a hotkey; the view is only touched on Tick.
type AutomationPresenter struct {
	ctl     AutomationControl
	view    AutomationView
	mirrors []func(bool)
	pending atomic.Bool
	shown   atomic.Int32 // -1 unknown, 0 off, 1 on
}

func NewAutomationPresenter(ctl AutomationControl, view AutomationView) *AutomationPresenter {
	p := &AutomationPresenter{ctl: ctl, view: view}
	p.shown.Store(-1)
	p.pending.Store(true)
	return p
}

// AddMirror registers a non-Tk surface (such as the tray) that follows the flag.
func (p *AutomationPresenter) AddMirror(fn func(bool)) {
	if p == nil || fn == nil {
		return
	}
	p.mirrors = append(p.mirrors, fn)
}

// Enable turns automation on. Idempotent.
func (p *AutomationPresenter) Enable() {
	if p == nil || p.ctl == nil || p.ctl.Automation() {
		return
	}
	p.ctl.SetAutomation(true)
}

// Disable turns automation off. Idempotent.
func (p *AutomationPresenter) Disable() {
	if p == nil || p.ctl == nil || !p.ctl.Automation() {
		return
	}
	p.ctl.SetAutomation(false)
}

// Toggle flips the flag.
func (p *AutomationPresenter) Toggle() {
	if p == nil || p.ctl == nil {
		return
	}
	if p.ctl.Automation() {
		p.Disable()
		return
	}
	p.Enable()
}

// OnAutomation is registered with the engine; safe from any goroutine.
func (p *AutomationPresenter) OnAutomation(on bool) {
	if p == nil {
		return
	}
	p.pending.Store(true)
	for _, m := range p.mirrors {
		m(on)
	}
}

// Tick reflects the flag in the view when it changed.
func (p *AutomationPresenter) Tick() {
	if p == nil || p.ctl == nil || p.view == nil || !p.pending.Swap(false) {
		return
	}
	on := p.ctl.Automation()
	v := int32(0)
	if on {
		v = 1
	}
	if p.shown.Swap(v) != v {
		p.view.SetAutomation(on)
	}
}
