package visibility

import (
	"log/slog"
	"sync"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeWindow counts show/hide calls.
type fakeWindow struct {
	mu           sync.Mutex
	shows, hides int
}

func (w *fakeWindow) Show() { w.mu.Lock(); w.shows++; w.mu.Unlock() }
func (w *fakeWindow) Hide() { w.mu.Lock(); w.hides++; w.mu.Unlock() }
func (w *fakeWindow) counts() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shows, w.hides
}

type transitionRecorder struct {
	mu  sync.Mutex
	seq []State
}

// listener records transitions.
func (r *transitionRecorder) listener(_ string, prev, next State) {
	r.mu.Lock()
	r.seq = append(r.seq, next)
	r.mu.Unlock()
}

func (r *transitionRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.seq...)
}

func newTestMachine(debounce int) (*Machine, *fakeWindow, *transitionRecorder) {
	w := &fakeWindow{}
	m := NewMachine("chat", w, Options{Debounce: debounce, StartActive: true, Enabled: true}, discardLogger)
	r := &transitionRecorder{}
	m.AddListener(r.listener)
	return m, w, r
}

func TestMachine_DebouncedShow(t *testing.T) {
	m, w, r := newTestMachine(2)
	defer m.Close()
	m.Verdict(true)
	m.Sync()
	if m.Current() != StateHidden {
		t.Fatalf("expected hidden after one poll, got %v", m.Current())
	}
	m.Verdict(true)
	m.Verdict(true)
	m.Sync()
	if m.Current() != StateVisible {
		t.Fatalf("expected visible, got %v", m.Current())
	}
	if seq := r.snapshot(); len(seq) != 1 || seq[0] != StateVisible {
		t.Fatalf("expected exactly one hidden->visible transition, got %v", seq)
	}
	if shows, _ := w.counts(); shows != 1 {
		t.Fatalf("expected one show, got %d", shows)
	}
}

func TestMachine_FlappingForwardsNothing(t *testing.T) {
	m, _, r := newTestMachine(3)
	defer m.Close()
	for i := 0; i < 20; i++ {
		m.Verdict(i%2 == 0)
	}
	m.Sync()
	if seq := r.snapshot(); len(seq) > 1 {
		t.Fatalf("flapping produced %d transitions", len(seq))
	}
}

func TestMachine_PinnedSuppressesHide(t *testing.T) {
	m, _, _ := newTestMachine(1)
	defer m.Close()
	m.Verdict(true)
	m.PointerEnter()
	m.Verdict(false)
	m.Sync()
	if m.Current() != StateVisible || !m.Pinned() {
		t.Fatalf("expected pinned visible, got %v pinned=%v", m.Current(), m.Pinned())
	}
	m.PointerLeave()
	m.Sync()
	if m.Current() != StateHidden {
		t.Fatalf("expected hidden after leave, got %v", m.Current())
	}
}

func TestMachine_PointerEnterWhileHiddenIgnored(t *testing.T) {
	m, _, _ := newTestMachine(1)
	defer m.Close()
	m.PointerEnter()
	m.Sync()
	if m.Pinned() {
		t.Fatal("hidden window must not pin")
	}
}

func TestMachine_ActivateForcesUntilDeactivate(t *testing.T) {
	w := &fakeWindow{}
	m := NewMachine("chat", w, Options{Debounce: 1, Enabled: true}, discardLogger)
	defer m.Close()
	m.Verdict(true) // not polling yet: ignored
	m.Sync()
	if m.Current() != StateHidden {
		t.Fatalf("verdict before activation changed state: %v", m.Current())
	}
	m.Activate()
	m.Verdict(false)
	m.Sync()
	if m.Current() != StateVisible || !m.Forced() {
		t.Fatalf("expected forced visible, got %v forced=%v", m.Current(), m.Forced())
	}
	m.Deactivate()
	m.Sync()
	if m.Current() != StateHidden || m.Polling() {
		t.Fatalf("expected hidden and stopped, got %v polling=%v", m.Current(), m.Polling())
	}
}

func TestMachine_ForcedClearsOnMatchedLatch(t *testing.T) {
	m, _, _ := newTestMachine(1)
	defer m.Close()
	m.Activate()
	m.Verdict(true)
	m.Sync()
	if m.Forced() {
		t.Fatal("forced should clear once the detector latches matched")
	}
	m.Verdict(false)
	m.Sync()
	if m.Current() != StateHidden {
		t.Fatalf("expected hidden after unmatched, got %v", m.Current())
	}
}

func TestMachine_DeactivateKeepsPinned(t *testing.T) {
	m, _, _ := newTestMachine(1)
	defer m.Close()
	m.Verdict(true)
	m.PointerEnter()
	m.Deactivate()
	m.Sync()
	if m.Current() != StateVisible {
		t.Fatalf("pinned overlay must stay visible, got %v", m.Current())
	}
}

func TestMachine_Toggle(t *testing.T) {
	m, _, _ := newTestMachine(1)
	defer m.Close()
	m.Toggle()
	m.Sync()
	if m.Polling() {
		t.Fatal("toggle from active should deactivate")
	}
	m.Toggle()
	m.Sync()
	if !m.Polling() || m.Current() != StateVisible {
		t.Fatalf("toggle should activate and show, got polling=%v state=%v", m.Polling(), m.Current())
	}
}

func TestMachine_DisableHidesAndIgnores(t *testing.T) {
	m, w, _ := newTestMachine(1)
	defer m.Close()
	m.Verdict(true)
	m.SetEnabled(false)
	m.Verdict(true)
	m.Sync()
	if m.Current() != StateHidden {
		t.Fatalf("expected hidden when disabled, got %v", m.Current())
	}
	if _, hides := w.counts(); hides != 1 {
		t.Fatalf("expected one hide, got %d", hides)
	}
	m.SetEnabled(true)
	m.Verdict(true)
	m.Sync()
	if m.Current() != StateVisible {
		t.Fatalf("expected visible after re-enable, got %v", m.Current())
	}
}

func TestMachine_CloseUnblocksSenders(t *testing.T) {
	m, _, _ := newTestMachine(1)
	m.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			m.Verdict(true)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("senders blocked after Close")
	}
}
