package model

import (
	"sort"
	"sync"

	"github.com/soocke/pixel-assist-go/domain/visibility"
)

// OverlayStatus is what the control window shows for one overlay.
type OverlayStatus struct {
	Name       string
	State      visibility.State
	Polling    bool
	Pinned     bool
	Confidence float64
	Polls      uint64
}

// OverlayModel collects overlay status written from machine and poller
// goroutines and read on the UI tick.
type OverlayModel struct {
	mu      sync.Mutex
	order   []string
	entries map[string]OverlayStatus
	dirty   bool
}

func NewOverlayModel() *OverlayModel {
	return &OverlayModel{entries: make(map[string]OverlayStatus)}
}

// Update replaces the status of one overlay. The first update fixes its display order.
func (m *OverlayModel) Update(s OverlayStatus) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.entries[s.Name]
	if !ok {
		m.order = append(m.order, s.Name)
	}
	if !ok || prev != s {
		m.entries[s.Name] = s
		m.dirty = true
	}
}

// SetState records a transition.
func (m *OverlayModel) SetState(name string, st visibility.State) {
	if m == nil {
		return
	}
	m.mu.Lock()
	s := m.entries[name]
	m.mu.Unlock()
	s.Name = name
	s.State = st
	m.Update(s)
}

// Take returns the statuses in display order if anything changed since the last call.
func (m *OverlayModel) Take() ([]OverlayStatus, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil, false
	}
	m.dirty = false
	return m.snapshotLocked(), true
}

// Snapshot returns the statuses in display order.
func (m *OverlayModel) Snapshot() []OverlayStatus {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *OverlayModel) snapshotLocked() []OverlayStatus {
	out := make([]OverlayStatus, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.entries[n])
	}
	return out
}

// Visible lists the names of visible overlays, sorted.
func (m *OverlayModel) Visible() []string {
	var out []string
	for _, s := range m.Snapshot() {
		if s.State == visibility.StateVisible {
			out = append(out, s.Name)
		}
	}
	sort.Strings(out)
	return out
}
