package presenter

import "time"

// Applier flushes queued state onto Tk widgets.
type Applier interface{ Apply() }

// Loop aggregates feature presenters and drives periodic updates on the Tk
// thread. The zero value is usable (methods are nil-safe).
type Loop struct {
	Overlays   *OverlayPresenter
	Automation *AutomationPresenter
	Target     *TargetPresenter
	Session    *SessionPresenter
	Hotkeys    *HotkeyPresenter
	Windows    []Applier
	Schedule   func()
}

func NewLoop(overlays *OverlayPresenter, automation *AutomationPresenter, target *TargetPresenter, session *SessionPresenter, windows []Applier, schedule func()) *Loop {
	return &Loop{Overlays: overlays, Automation: automation, Target: target, Session: session, Windows: windows, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	for _, w := range l.Windows {
		w.Apply()
	}
	if l.Overlays != nil {
		l.Overlays.Tick(now)
	}
	if l.Automation != nil {
		l.Automation.Tick()
	}
	if l.Target != nil {
		l.Target.Tick()
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Hotkeys != nil {
		l.Hotkeys.Tick()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
