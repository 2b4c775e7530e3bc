package visibility

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Machine drives one overlay window from detector verdicts, pointer hover,
// hotkey activation and the global automation flag. All state changes happen
// on the machine's own goroutine.
type Machine struct {
	id        string
	logger    *slog.Logger
	window    Window
	debouncer *Debouncer

	state   State
	pinned  bool
	forced  bool
	polling bool
	enabled bool

	listeners  []TransitionListener
	leaveHooks []func()

	events    chan interface{}
	done      chan struct{}
	closeOnce sync.Once

	// mirrors for readers on other goroutines
	curState   atomic.Int32
	curPinned  atomic.Bool
	curPolling atomic.Bool
	curForced  atomic.Bool
}

// Options configure a Machine.
type Options struct {
	Debounce    int
	StartActive bool
	Enabled     bool
}

// NewMachine constructs and starts the event loop. window may be nil.
func NewMachine(id string, window Window, opts Options, logger *slog.Logger) *Machine {
	m := &Machine{
		id:        id,
		logger:    logger,
		window:    window,
		debouncer: NewDebouncer(opts.Debounce),
		polling:   opts.StartActive,
		enabled:   opts.Enabled,
		events:    make(chan interface{}, 64),
		done:      make(chan struct{}),
	}
	m.publish()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Error("visibility machine panic", "overlay", id, "error", r, "stack", string(debug.Stack()))
				}
			}
		}()
		m.loop()
	}()
	return m
}

// events
type (
	evtVerdict      struct{ matched bool }
	evtPointerEnter struct{}
	evtPointerLeave struct{}
	evtActivate     struct{}
	evtDeactivate   struct{}
	evtToggle       struct{}
	evtSetEnabled   struct{ on bool }
	evtAddListener  struct{ l TransitionListener }
	evtAddLeaveHook struct{ fn func() }
	evtSync         struct{ done chan struct{} }
)

func (m *Machine) loop() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.handle(ev)
			m.publish()
		}
	}
}

func (m *Machine) handle(ev interface{}) {
	switch e := ev.(type) {
	case evtAddListener:
		m.listeners = append(m.listeners, e.l)
	case evtAddLeaveHook:
		m.leaveHooks = append(m.leaveHooks, e.fn)
	case evtVerdict:
		if !m.enabled || !m.polling {
			return
		}
		latched, changed := m.debouncer.Feed(e.matched)
		if changed && latched {
			m.forced = false
		}
		m.reconcile()
	case evtPointerEnter:
		if m.state == StateVisible {
			m.pinned = true
		}
	case evtPointerLeave:
		if !m.pinned {
			return
		}
		m.pinned = false
		m.reconcile()
		for _, fn := range m.leaveHooks {
			fn()
		}
	case evtActivate:
		m.activate()
	case evtDeactivate:
		m.deactivate()
	case evtToggle:
		if m.polling {
			m.deactivate()
		} else {
			m.activate()
		}
	case evtSetEnabled:
		if m.enabled == e.on {
			return
		}
		m.enabled = e.on
		if !e.on {
			m.forced = false
			m.debouncer.Reset()
			m.hideUnlessPinned()
		}
		if m.logger != nil {
			m.logger.Debug("overlay automation flag", "overlay", m.id, "enabled", e.on)
		}
	case evtSync:
		close(e.done)
	}
}

func (m *Machine) activate() {
	m.polling = true
	m.forced = !m.debouncer.Latched()
	m.transition(StateVisible)
}

func (m *Machine) deactivate() {
	m.polling = false
	m.forced = false
	m.debouncer.Reset()
	m.hideUnlessPinned()
}

func (m *Machine) hideUnlessPinned() {
	if !m.pinned {
		m.transition(StateHidden)
	}
}

// reconcile aligns the window with the latched verdict and forced flag.
func (m *Machine) reconcile() {
	desired := m.debouncer.Latched() || m.forced
	switch {
	case desired && m.state == StateHidden:
		m.transition(StateVisible)
	case !desired && m.state == StateVisible && !m.pinned:
		m.transition(StateHidden)
	}
}

func (m *Machine) transition(next State) {
	prev := m.state
	if prev == next {
		return
	}
	if m.window != nil {
		if next == StateVisible {
			m.window.Show()
		} else {
			m.window.Hide()
		}
	}
	m.state = next
	if m.logger != nil {
		m.logger.Info("overlay transition", "overlay", m.id, "from", prev.String(), "to", next.String(), "forced", m.forced)
	}
	for _, l := range m.listeners {
		l(m.id, prev, next)
	}
}

func (m *Machine) publish() {
	m.curState.Store(int32(m.state))
	m.curPinned.Store(m.pinned)
	m.curPolling.Store(m.polling)
	m.curForced.Store(m.forced)
}

func (m *Machine) send(ev interface{}) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// Public API implements contracts
func (m *Machine) ID() string                       { return m.id }
func (m *Machine) Current() State                   { return State(m.curState.Load()) }
func (m *Machine) Pinned() bool                     { return m.curPinned.Load() }
func (m *Machine) Polling() bool                    { return m.curPolling.Load() }
func (m *Machine) Forced() bool                     { return m.curForced.Load() }
func (m *Machine) AddListener(l TransitionListener) { m.send(evtAddListener{l: l}) }
func (m *Machine) OnPointerLeave(fn func())         { m.send(evtAddLeaveHook{fn: fn}) }
func (m *Machine) Verdict(matched bool)             { m.send(evtVerdict{matched: matched}) }
func (m *Machine) PointerEnter()                    { m.send(evtPointerEnter{}) }
func (m *Machine) PointerLeave()                    { m.send(evtPointerLeave{}) }
func (m *Machine) Activate()                        { m.send(evtActivate{}) }
func (m *Machine) Deactivate()                      { m.send(evtDeactivate{}) }
func (m *Machine) Toggle()                          { m.send(evtToggle{}) }
func (m *Machine) SetEnabled(on bool)               { m.send(evtSetEnabled{on: on}) }

// Sync blocks until every event sent before it has been handled.
func (m *Machine) Sync() {
	done := make(chan struct{})
	m.send(evtSync{done: done})
	select {
	case <-done:
	case <-m.done:
	}
}

func (m *Machine) Close() { m.closeOnce.Do(func() { close(m.done) }) }

// Ensure contract satisfaction
var _ MachineContract = (*Machine)(nil)
