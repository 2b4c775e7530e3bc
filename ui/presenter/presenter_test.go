package presenter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soocke/pixel-assist-go/domain/detect"
	"github.com/soocke/pixel-assist-go/domain/inject"
	"github.com/soocke/pixel-assist-go/domain/target"
	"github.com/soocke/pixel-assist-go/domain/visibility"
	"github.com/soocke/pixel-assist-go/ui/model"
)

type mockFlag struct {
	mu      sync.Mutex
	on      bool
	sets    int
	onFlips []func(bool)
}

func (m *mockFlag) Automation() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.on }
func (m *mockFlag) SetAutomation(b bool) {
	m.mu.Lock()
	m.on = b
	m.sets++
	fns := m.onFlips
	m.mu.Unlock()
	for _, fn := range fns {
		fn(b)
	}
}

type mockAutomationView struct {
	calls int
	last  bool
}

func (v *mockAutomationView) SetAutomation(on bool) { v.calls++; v.last = on }

func TestAutomationPresenter_EnableDisable_Idempotent(t *testing.T) {
	flag := &mockFlag{}
	view := &mockAutomationView{}
	p := NewAutomationPresenter(flag, view)
	flag.onFlips = append(flag.onFlips, p.OnAutomation)
	var mirrored []bool
	p.AddMirror(func(b bool) { mirrored = append(mirrored, b) })

	p.Tick()
	if view.calls != 1 || view.last {
		t.Fatalf("initial tick should show off: calls=%d last=%v", view.calls, view.last)
	}
	p.Enable()
	p.Enable()
	if flag.sets != 1 {
		t.Fatalf("enable not idempotent: sets=%d", flag.sets)
	}
	p.Tick()
	if view.calls != 2 || !view.last {
		t.Fatalf("enable not shown: calls=%d last=%v", view.calls, view.last)
	}
	p.Tick()
	if view.calls != 2 {
		t.Fatalf("tick without change touched view")
	}
	p.Toggle()
	p.Disable()
	p.Tick()
	if flag.sets != 2 || view.last {
		t.Fatalf("toggle/disable failed: sets=%d last=%v", flag.sets, view.last)
	}
	if len(mirrored) != 2 || !mirrored[0] || mirrored[1] {
		t.Fatalf("mirrors saw %v", mirrored)
	}
}

type mockOverlayView struct{ rows [][]model.OverlayStatus }

func (v *mockOverlayView) SetOverlayStatus(rows []model.OverlayStatus) { v.rows = append(v.rows, rows) }

type mockMachine struct {
	state   visibility.State
	polling bool
}

func (m *mockMachine) Current() visibility.State { return m.state }
func (m *mockMachine) Pinned() bool              { return false }
func (m *mockMachine) Polling() bool             { return m.polling }

func TestOverlayPresenter_FlushesOnlyChanges(t *testing.T) {
	mm := &mockMachine{polling: true}
	view := &mockOverlayView{}
	src := OverlaySource{
		Name:    "chat",
		Machine: mm,
		Last:    func() (detect.Result, bool) { return detect.Result{Confidence: 80}, true },
	}
	p := NewOverlayPresenter(model.NewOverlayModel(), view, []OverlaySource{src})

	p.Tick(time.Now())
	if len(view.rows) != 1 || view.rows[0][0].Confidence != 80 || !view.rows[0][0].Polling {
		t.Fatalf("unexpected first flush: %+v", view.rows)
	}
	p.Tick(time.Now())
	if len(view.rows) != 1 {
		t.Fatalf("unchanged tick flushed again")
	}
	mm.state = visibility.StateVisible
	p.OnTransition("chat", visibility.StateHidden, visibility.StateVisible)
	p.Tick(time.Now())
	if len(view.rows) != 2 || view.rows[1][0].State != visibility.StateVisible {
		t.Fatalf("transition not flushed: %+v", view.rows)
	}
}

type fakeWatcher struct {
	name     string
	statuses []target.Status
}

func (w *fakeWatcher) Name() string { return w.name }
func (w *fakeWatcher) Watch(ctx context.Context, _ time.Duration, fn func(target.Status)) {
	for _, s := range w.statuses {
		fn(s)
	}
	<-ctx.Done()
}

type mockTargetView struct {
	mu    sync.Mutex
	texts []string
}

func (v *mockTargetView) SetTarget(s string) { v.mu.Lock(); v.texts = append(v.texts, s); v.mu.Unlock() }

func TestTargetPresenter_ShowsLatest(t *testing.T) {
	w := &fakeWatcher{name: "gta5", statuses: []target.Status{
		{Active: true, Process: "gta5"},
		{Active: false, Process: "explorer"},
	}}
	view := &mockTargetView{}
	p := NewTargetPresenter(w, view, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	want := "Target: gta5 (behind explorer)"
	last := func() (string, int) {
		view.mu.Lock()
		defer view.mu.Unlock()
		if len(view.texts) == 0 {
			return "", 0
		}
		return view.texts[len(view.texts)-1], len(view.texts)
	}
	deadline := time.Now().Add(time.Second)
	for {
		p.Tick()
		if text, _ := last(); text == want {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("target status not shown")
		}
		time.Sleep(2 * time.Millisecond)
	}
	_, n := last()
	p.Tick()
	if _, n2 := last(); n2 != n {
		t.Fatalf("tick without new status touched view")
	}
}

type fakeCounters struct {
	total int64
	err   error
}

func (c *fakeCounters) Total(context.Context) (int64, error) { return c.total, c.err }

type mockSessionView struct {
	run, total time.Duration
	sent       int
	failed     int
	counter    int64
	last       string
}

func (v *mockSessionView) SetSession(run, total time.Duration) { v.run, v.total = run, total }
func (v *mockSessionView) SetSends(sent, failed int, counter int64, last string) {
	v.sent, v.failed, v.counter, v.last = sent, failed, counter, last
}

func TestSessionPresenter_SendsAndCounter(t *testing.T) {
	flag := &mockFlag{on: true}
	counters := &fakeCounters{total: 7}
	view := &mockSessionView{}
	sess := model.NewSessionModel()
	p := NewSessionPresenter(sess, flag, counters, view, nil)

	p.OnSend("/report", inject.Result{OK: true})
	counters.err = errors.New("locked")
	p.OnSend("/help", inject.Result{Err: inject.ErrClipboardBusy})

	now := time.Now()
	p.Tick(now)
	p.Tick(now.Add(2 * time.Second))
	if view.sent != 1 || view.failed != 1 || view.counter != 7 || view.last != "/help" {
		t.Fatalf("unexpected sends view: %+v", view)
	}
	if view.run != 2*time.Second {
		t.Fatalf("run = %v", view.run)
	}
}

type mockHotkeyView struct{ texts []string }

func (v *mockHotkeyView) SetHotkey(text string) { v.texts = append(v.texts, text) }

func TestHotkeyPresenter_ShowsLatestOnTick(t *testing.T) {
	view := &mockHotkeyView{}
	p := NewHotkeyPresenter(view)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 5, 0, time.UTC) }
	p.Tick()
	if len(view.texts) != 0 {
		t.Fatalf("tick without firing touched view: %v", view.texts)
	}
	p.OnHotkey("toggle:chat")
	p.OnHotkey("send:/report")
	p.Tick()
	p.Tick()
	if len(view.texts) != 1 || view.texts[0] != "Hotkey: send:/report at 09:30:05" {
		t.Fatalf("view got %v", view.texts)
	}
	if p.Fired() != 2 {
		t.Fatalf("fired = %d", p.Fired())
	}
}
