package visibility

// State is the visibility of one overlay window.
type State int

const (
	StateHidden State = iota
	StateVisible
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// Window is the show/hide surface the machine drives. Implementations must be
// safe to call from the machine goroutine.
type Window interface {
	Show()
	Hide()
}

// TransitionListener is called on each state change with the overlay id.
type TransitionListener func(id string, prev, next State)

// Interface slices for consumers (presenters, hotkey routing, pollers).
type StateSource interface {
	Current() State
	Pinned() bool
	Polling() bool
}
type PointerEvents interface {
	PointerEnter()
	PointerLeave()
}
type ActivationControl interface {
	Activate()
	Deactivate()
	Toggle()
}
type AutomationControl interface{ SetEnabled(bool) }
type VerdictSink interface{ Verdict(matched bool) }

// MachineContract aggregate for DI.
type MachineContract interface {
	StateSource
	PointerEvents
	ActivationControl
	AutomationControl
	VerdictSink
	ID() string
	AddListener(TransitionListener)
	OnPointerLeave(func())
	Close()
}
