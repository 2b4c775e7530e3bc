package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows automation run time and injection counts.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
	SetSends(sent, failed int, counter int64, last string)
}

type sessionStats struct {
	sessionLbl *LabelWidget
	totalLbl   *LabelWidget
	sendsLbl   *LabelWidget
	lastLbl    *LabelWidget
}

// NewSessionStats creates the labels on one grid row starting at startCol.
// If parent is nil, labels are positioned relative to the App root.
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{
		sessionLbl: Label(Width(14)),
		totalLbl:   Label(Width(14)),
		sendsLbl:   Label(Width(22)),
		lastLbl:    Label(Width(18), Anchor("w")),
	}
	for i, lbl := range []*LabelWidget{s.sessionLbl, s.totalLbl, s.sendsLbl, s.lastLbl} {
		if parent != nil {
			Grid(lbl, In(parent), Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(lbl, Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.sessionLbl.Configure(Txt("Run: 00:00"))
	s.totalLbl.Configure(Txt("Total: 00:00"))
	s.sendsLbl.Configure(Txt("Sent: 0  Failed: 0"))
	s.lastLbl.Configure(Txt("Last: -"))
	return s
}

func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt("Run: " + clock(d)))
}

func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("Total: " + clock(d)))
}

// SetSends updates the injection counters. counter is the persisted total.
func (s *sessionStats) SetSends(sent, failed int, counter int64, last string) {
	if s == nil || s.sendsLbl == nil {
		return
	}
	s.sendsLbl.Configure(Txt(fmt.Sprintf("Sent: %d  Failed: %d  Count: %d", sent, failed, counter)))
	if last == "" {
		last = "-"
	}
	s.lastLbl.Configure(Txt("Last: " + last))
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
