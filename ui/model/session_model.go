package model

import (
	"sync"
	"time"
)

// SessionModel tracks how long automation has been on (current run and
// accumulated) and how many commands were sent. Send results arrive from
// injector goroutines, durations from the UI tick.
type SessionModel struct {
	mu          sync.Mutex
	active      bool
	runStart    time.Time
	lastRun     time.Duration
	accumulated time.Duration
	sent        int
	failed      int
	counted     int64
	lastCommand string
}

// NewSessionModel returns a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the run clock from the automation flag.
func (m *SessionModel) OnTick(automated bool, now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case automated && !m.active:
		m.active = true
		m.runStart = now
		m.lastRun = 0
	case automated:
		m.lastRun = now.Sub(m.runStart)
	case m.active:
		m.lastRun = now.Sub(m.runStart)
		m.accumulated += m.lastRun
		m.active = false
	}
}

// Values returns the current run and the total automated time, including the
// ongoing run.
func (m *SessionModel) Values() (run, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	run = m.lastRun
	total = m.accumulated
	if m.active {
		total += run
	}
	return
}

// RecordSend counts one finished send.
func (m *SessionModel) RecordSend(command string, ok bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.sent++
	} else {
		m.failed++
	}
	m.lastCommand = command
}

// SetCounter stores the persisted counter total.
func (m *SessionModel) SetCounter(n int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.counted = n
	m.mu.Unlock()
}

// SendStats returns sends this session, failures, the persisted counter and the last command.
func (m *SessionModel) SendStats() (sent, failed int, counter int64, last string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent, m.failed, m.counted, m.lastCommand
}
