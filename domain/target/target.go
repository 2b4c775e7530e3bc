// Package target decides whether the configured application is the one the
// user is looking at. Detection is only meaningful while it is.
package target

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/soocke/pixel-assist-go/domain/action"
)

// Status is one observation of the foreground window.
type Status struct {
	Active  bool
	PID     uint32
	Process string
	Title   string
}

// ForegroundFunc returns the owning process id and title of the foreground window.
type ForegroundFunc func() (uint32, string, error)

// NameFunc resolves a process id to its executable name.
type NameFunc func(pid int32) (string, error)

// Tracker answers "is the target in front" with a short cache so that several
// pollers can ask every tick without each walking the process table.
type Tracker struct {
	name       string
	foreground ForegroundFunc
	lookup     NameFunc
	ttl        time.Duration
	self       uint32
	logger     *slog.Logger

	mu      sync.Mutex
	last    Status
	checked time.Time
	names   map[uint32]string
}

// NewTracker builds a tracker for the process name (case-insensitive, the
// ".exe" suffix optional). An empty name means the target is always active.
func NewTracker(name string, logger *slog.Logger) *Tracker {
	return &Tracker{
		name:       normalize(name),
		foreground: action.ForegroundWindow,
		lookup:     processName,
		ttl:        250 * time.Millisecond,
		self:       uint32(os.Getpid()),
		logger:     logger,
		names:      make(map[uint32]string),
	}
}

// WithSources swaps the OS lookups; used by tests.
func (t *Tracker) WithSources(fg ForegroundFunc, lookup NameFunc) *Tracker {
	if fg != nil {
		t.foreground = fg
	}
	if lookup != nil {
		t.lookup = lookup
	}
	return t
}

// Name is the normalized target process name.
func (t *Tracker) Name() string { return t.name }

// Active is the poller gate.
func (t *Tracker) Active() bool { return t.Status().Active }

// Status returns the cached observation, refreshing it when stale.
func (t *Tracker) Status() Status {
	if t.name == "" {
		return Status{Active: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.checked.IsZero() && time.Since(t.checked) < t.ttl {
		return t.last
	}
	t.last = t.observe()
	t.checked = time.Now()
	return t.last
}

func (t *Tracker) observe() Status {
	pid, title, err := t.foreground()
	if err != nil {
		// Without a foreground reading the gate stays open.
		if t.logger != nil && t.checked.IsZero() {
			t.logger.Warn("foreground window unavailable, target gate open", "error", err)
		}
		return Status{Active: true}
	}
	st := Status{PID: pid, Title: title}
	if pid == 0 {
		return st
	}
	if pid == t.self {
		// Our overlays and control window keep the previous answer.
		if !t.checked.IsZero() {
			return t.last
		}
		return st
	}
	name, ok := t.names[pid]
	if !ok {
		n, err := t.lookup(int32(pid))
		if err != nil {
			if t.logger != nil {
				t.logger.Debug("process name lookup failed", "pid", pid, "error", err)
			}
			return st
		}
		name = normalize(n)
		if len(t.names) > 64 {
			clear(t.names)
		}
		t.names[pid] = name
	}
	st.Process = name
	st.Active = name == t.name
	return st
}

// Running reports whether any process with the target name exists.
func (t *Tracker) Running() (bool, error) {
	if t.name == "" {
		return true, nil
	}
	procs, err := process.Processes()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			continue // exited
		}
		if normalize(n) == t.name {
			return true, nil
		}
	}
	return false, nil
}

// Watch calls fn whenever the active flag flips, until ctx is done.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration, fn func(Status)) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	first := true
	var prev bool
	for {
		st := t.Status()
		if first || st.Active != prev {
			first = false
			prev = st.Active
			if t.logger != nil {
				t.logger.Debug("target focus", "active", st.Active, "process", st.Process, "title", st.Title)
			}
			if fn != nil {
				fn(st)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func processName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(n, ".exe")
}
