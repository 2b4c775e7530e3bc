package visibility

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-assist-go/domain/detect"
)

// Evaluator produces a fused verdict for a profile.
type Evaluator interface {
	Evaluate(p *detect.Profile) detect.Result
}

// Gate reports whether evaluation should run at all (automation flag, target focus).
type Gate func() bool

// Poller evaluates one profile on its interval and feeds verdicts to a machine.
// Evaluation and delivery are sequential; separate profiles use separate pollers.
type Poller struct {
	profile   atomic.Pointer[detect.Profile]
	eval      Evaluator
	machine   MachineContract
	automated Gate
	target    Gate
	kick      chan struct{}
	logger    *slog.Logger
	polls     atomic.Uint64
	last      atomic.Pointer[detect.Result]
}

// NewPoller constructs a poller. Nil gates are treated as always open.
func NewPoller(p *detect.Profile, eval Evaluator, machine MachineContract, automated, target Gate, logger *slog.Logger) *Poller {
	pl := &Poller{eval: eval, machine: machine, automated: automated, target: target, kick: make(chan struct{}, 1), logger: logger}
	pl.profile.Store(p)
	machine.OnPointerLeave(pl.Kick)
	return pl
}

// SetProfile swaps the profile; an in-flight poll keeps the old one.
func (p *Poller) SetProfile(pr *detect.Profile) { p.profile.Store(pr) }

// Profile returns the current profile.
func (p *Poller) Profile() *detect.Profile { return p.profile.Load() }

// Kick requests an immediate re-evaluation. Never blocks.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Polls returns the number of completed evaluations.
func (p *Poller) Polls() uint64 { return p.polls.Load() }

// LastResult returns the most recent verdict, if any.
func (p *Poller) LastResult() (detect.Result, bool) {
	r := p.last.Load()
	if r == nil {
		return detect.Result{}, false
	}
	return *r, true
}

// Poll performs one evaluation and delivers its verdict. It reports whether a
// verdict was delivered.
func (p *Poller) Poll() bool {
	if p.automated != nil && !p.automated() {
		return false
	}
	if !p.machine.Polling() {
		return false
	}
	if p.target != nil && !p.target() {
		p.machine.Verdict(false)
		return true
	}
	pr := p.profile.Load()
	if pr == nil {
		return false
	}
	res := p.eval.Evaluate(pr)
	p.last.Store(&res)
	p.polls.Add(1)
	p.machine.Verdict(res.Matched)
	return true
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("poller panic", "overlay", p.machine.ID(), "error", r)
		}
	}()
	interval := p.interval()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-p.kick:
		}
		p.Poll()
		if next := p.interval(); next != interval {
			interval = next
			t.Reset(interval)
		}
	}
}

func (p *Poller) interval() time.Duration {
	if pr := p.profile.Load(); pr != nil && pr.Interval > 0 {
		return pr.Interval
	}
	return 150 * time.Millisecond
}
