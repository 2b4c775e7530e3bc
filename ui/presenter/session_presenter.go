package presenter

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/pixel-assist-go/domain/inject"
	"github.com/soocke/pixel-assist-go/ui/model"
)

// AutomationFlag reports whether automation is on.
type AutomationFlag interface{ Automation() bool }

// CounterSource reads the persisted counter total.
type CounterSource interface {
	Total(ctx context.Context) (int64, error)
}

// SessionView displays run time and send statistics.
type SessionView interface {
	SetSession(run, total time.Duration)
	SetSends(sent, failed int, counter int64, last string)
}

// SessionPresenter formats automation time and sends for the control window.
type SessionPresenter struct {
	sess     *model.SessionModel
	flag     AutomationFlag
	counters CounterSource
	view     SessionView
	logger   *slog.Logger
}

// NewSessionPresenter returns a new SessionPresenter. counters may be nil.
func NewSessionPresenter(sess *model.SessionModel, flag AutomationFlag, counters CounterSource, view SessionView, logger *slog.Logger) *SessionPresenter {
	return &SessionPresenter{sess: sess, flag: flag, counters: counters, view: view, logger: logger}
}

// Refresh loads the persisted counter.
func (p *SessionPresenter) Refresh(ctx context.Context) {
	if p == nil || p.counters == nil {
		return
	}
	n, err := p.counters.Total(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("counter read failed", "error", err)
		}
		return
	}
	p.sess.SetCounter(n)
}

// OnSend is registered with the engine and runs on the sending goroutine.
func (p *SessionPresenter) OnSend(command string, res inject.Result) {
	if p == nil || p.sess == nil {
		return
	}
	p.sess.RecordSend(command, res.Err == nil)
	p.Refresh(context.Background())
}

// Tick advances the run clock and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.flag == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.flag.Automation(), now)
	run, total := p.sess.Values()
	p.view.SetSession(run, total)
	p.view.SetSends(p.sess.SendStats())
}
