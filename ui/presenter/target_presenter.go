package presenter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/pixel-assist-go/domain/target"
)

// TargetWatcher reports target focus changes.
type TargetWatcher interface {
	Name() string
	Watch(ctx context.Context, interval time.Duration, fn func(target.Status))
}

// TargetView shows whether the target application is in front.
type TargetView interface {
	SetTarget(text string)
}

// TargetPresenter watches the target application on its own goroutine and
// shows the latest status on the UI tick.
type TargetPresenter struct {
	watcher  TargetWatcher
	view     TargetView
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	latest  *target.Status
	running bool
}

func NewTargetPresenter(w TargetWatcher, view TargetView, interval time.Duration, logger *slog.Logger) *TargetPresenter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &TargetPresenter{watcher: w, view: view, interval: interval, logger: logger}
}

// Start launches the watch goroutine; it ends with ctx.
func (p *TargetPresenter) Start(ctx context.Context) {
	if p == nil || p.watcher == nil {
		return
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()
	go func() {
		p.watcher.Watch(ctx, p.interval, p.OnStatus)
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()
}

// OnStatus queues a status for the next Tick.
func (p *TargetPresenter) OnStatus(s target.Status) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.latest = &s
	p.mu.Unlock()
	if p.logger != nil {
		p.logger.Debug("target status", "active", s.Active, "process", s.Process)
	}
}

// Tick shows the latest queued status.
func (p *TargetPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	s := p.latest
	p.latest = nil
	p.mu.Unlock()
	if s == nil {
		return
	}
	p.view.SetTarget(describeTarget(p.watcher.Name(), *s))
}

func describeTarget(name string, s target.Status) string {
	switch {
	case name == "":
		return "Target: any window"
	case s.Active:
		return "Target: " + name + " (focused)"
	case s.Process != "":
		return "Target: " + name + " (behind " + s.Process + ")"
	default:
		return "Target: " + name + " (not focused)"
	}
}
