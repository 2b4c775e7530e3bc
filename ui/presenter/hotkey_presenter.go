package presenter

import (
	"sync"
	"time"
)

// HotkeyView shows the most recent hotkey firing.
type HotkeyView interface {
	SetHotkey(text string)
}

// HotkeyPresenter queues hotkey firings from the dispatcher goroutine and shows
// the latest one on Tick.
type HotkeyPresenter struct {
	view HotkeyView
	now  func() time.Time

	mu      sync.Mutex
	pending string
	at      time.Time
	count   int
}

func NewHotkeyPresenter(view HotkeyView) *HotkeyPresenter {
	return &HotkeyPresenter{view: view, now: time.Now}
}

// OnHotkey is registered with the engine.
func (p *HotkeyPresenter) OnHotkey(action string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = action
	p.at = p.now()
	p.count++
	p.mu.Unlock()
}

// Fired is the number of firings seen so far.
func (p *HotkeyPresenter) Fired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *HotkeyPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	action, at := p.pending, p.at
	p.pending = ""
	p.mu.Unlock()
	if action == "" {
		return
	}
	p.view.SetHotkey(describeHotkey(action, at))
}

func describeHotkey(action string, at time.Time) string {
	return "Hotkey: " + action + " at " + at.Format("15:04:05")
}
