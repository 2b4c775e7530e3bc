package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Binding ties an action id to a key combination string.
type Binding struct {
	Action string
	Keys   string
}

// Callback receives the action id of a fired binding.
type Callback func(action string)

// Registered describes an accepted binding.
type Registered struct {
	Action string
	Combo  Combo
}

type entry struct {
	Registered
	cb      Callback
	pressed bool
}

type firing struct {
	cb     Callback
	action string
}

// Dispatcher matches key events against registered bindings. Handle is cheap
// and non-blocking so it can run on the hook thread; callbacks run on the
// dispatcher's own goroutine started by Run.
type Dispatcher struct {
	mu      sync.Mutex
	entries []*entry
	out     chan firing
	logger  *slog.Logger
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{out: make(chan firing, 32), logger: logger}
}

// Register parses b and adds it. A bad combination drops only this binding.
func (d *Dispatcher) Register(b Binding, cb Callback) error {
	c, err := Parse(b.Keys)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("hotkey binding rejected", "action", b.Action, "keys", b.Keys, "error", err)
		}
		return fmt.Errorf("%w: %s: %v", ErrRegistrationFailed, b.Action, err)
	}
	d.mu.Lock()
	d.entries = append(d.entries, &entry{Registered: Registered{Action: b.Action, Combo: c}, cb: cb})
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Debug("hotkey registered", "action", b.Action, "combo", c.String())
	}
	return nil
}

// Bindings lists the accepted bindings in registration order.
func (d *Dispatcher) Bindings() []Registered {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Registered, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Registered)
	}
	return out
}

// Handle processes one raw event. Each combo fires once per press.
func (d *Dispatcher) Handle(e KeyEvent) {
	if IsModifierVK(e.VK) {
		return
	}
	d.mu.Lock()
	var fire []firing
	for _, en := range d.entries {
		if !e.Down {
			if en.pressed && en.Combo.Key.matchesKey(e) {
				en.pressed = false
			}
			continue
		}
		if en.pressed || !en.Combo.Matches(e) {
			continue
		}
		en.pressed = true
		fire = append(fire, firing{cb: en.cb, action: en.Action})
	}
	d.mu.Unlock()
	for _, f := range fire {
		select {
		case d.out <- f:
		default:
			if d.logger != nil {
				d.logger.Warn("hotkey dropped", "action", f.action)
			}
		}
	}
}

// Run delivers fired callbacks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-d.out:
			d.invoke(f)
		}
	}
}

func (d *Dispatcher) invoke(f firing) {
	defer func() {
		if r := recover(); r != nil && d.logger != nil {
			d.logger.Error("hotkey callback panic", "action", f.action, "error", r)
		}
	}()
	if f.cb != nil {
		f.cb(f.action)
	}
}
