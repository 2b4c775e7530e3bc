package presenter

import (
	"time"

	"github.com/soocke/pixel-assist-go/domain/detect"
	"github.com/soocke/pixel-assist-go/domain/visibility"
	"github.com/soocke/pixel-assist-go/ui/model"
)

// OverlaySource is the read side of one overlay the presenter polls.
type OverlaySource struct {
	Name    string
	Machine visibility.StateSource
	Last    func() (detect.Result, bool)
	Polls   func() uint64
}

// OverlayView renders overlay status rows.
type OverlayView interface {
	SetOverlayStatus(rows []model.OverlayStatus)
}

// OverlayPresenter mirrors machine state into the model and flushes changes to
// the view on the UI tick.
type OverlayPresenter struct {
	model   *model.OverlayModel
	view    OverlayView
	sources []OverlaySource
}

func NewOverlayPresenter(m *model.OverlayModel, view OverlayView, sources []OverlaySource) *OverlayPresenter {
	p := &OverlayPresenter{model: m, view: view, sources: sources}
	for _, s := range sources {
		m.Update(model.OverlayStatus{Name: s.Name})
	}
	return p
}

// OnTransition is a visibility.TransitionListener; safe from any goroutine.
func (p *OverlayPresenter) OnTransition(id string, prev, next visibility.State) {
	if p == nil {
		return
	}
	p.model.SetState(id, next)
}

// Tick refreshes polled fields and pushes the rows if anything changed.
func (p *OverlayPresenter) Tick(now time.Time) {
	if p == nil || p.model == nil {
		return
	}
	for _, s := range p.sources {
		st := model.OverlayStatus{Name: s.Name}
		if s.Machine != nil {
			st.State = s.Machine.Current()
			st.Polling = s.Machine.Polling()
			st.Pinned = s.Machine.Pinned()
		}
		if s.Last != nil {
			if r, ok := s.Last(); ok {
				st.Confidence = r.Confidence
			}
		}
		if s.Polls != nil {
			st.Polls = s.Polls()
		}
		p.model.Update(st)
	}
	if p.view == nil {
		return
	}
	if rows, changed := p.model.Take(); changed {
		p.view.SetOverlayStatus(rows)
	}
}
