package target

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDesktop struct {
	mu      sync.Mutex
	pid     uint32
	err     error
	lookups atomic.Int32
}

func (f *fakeDesktop) foreground() (uint32, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pid, "window", f.err
}

func (f *fakeDesktop) setPID(pid uint32) {
	f.mu.Lock()
	f.pid = pid
	f.mu.Unlock()
}

func (f *fakeDesktop) lookup(pid int32) (string, error) {
	f.lookups.Add(1)
	switch pid {
	case 10:
		return "GTA5.exe", nil
	case 20:
		return "explorer.exe", nil
	}
	return "", errors.New("no such process")
}

func newTracker(name string, d *fakeDesktop) *Tracker {
	tr := NewTracker(name, nil).WithSources(d.foreground, d.lookup)
	tr.ttl = 0
	tr.self = 30
	return tr
}

func TestEmptyNameAlwaysActive(t *testing.T) {
	d := &fakeDesktop{pid: 20}
	tr := newTracker("", d)
	assert.True(t, tr.Active())
	assert.Zero(t, d.lookups.Load())
}

func TestActiveFollowsForeground(t *testing.T) {
	d := &fakeDesktop{pid: 10}
	tr := newTracker("gta5", d)
	st := tr.Status()
	assert.True(t, st.Active)
	assert.Equal(t, "gta5", st.Process)

	d.setPID(20)
	assert.False(t, tr.Active())
	d.setPID(99)
	assert.False(t, tr.Active())
}

func TestNamesAreCached(t *testing.T) {
	d := &fakeDesktop{pid: 10}
	tr := newTracker("GTA5.exe", d)
	for i := 0; i < 5; i++ {
		require.True(t, tr.Active())
	}
	assert.Equal(t, int32(1), d.lookups.Load())
}

func TestForegroundErrorKeepsGateOpen(t *testing.T) {
	d := &fakeDesktop{err: errors.New("unsupported")}
	tr := newTracker("gta5", d)
	assert.True(t, tr.Active())
}

func TestStatusTTL(t *testing.T) {
	d := &fakeDesktop{pid: 10}
	tr := newTracker("gta5", d)
	tr.ttl = time.Hour
	require.True(t, tr.Active())
	d.setPID(20)
	assert.True(t, tr.Active(), "cached value within ttl")
}

func TestWatchReportsFlips(t *testing.T) {
	d := &fakeDesktop{pid: 10}
	tr := newTracker("gta5", d)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []bool
	go tr.Watch(ctx, 5*time.Millisecond, func(s Status) {
		mu.Lock()
		seen = append(seen, s.Active)
		mu.Unlock()
	})
	count := func() int { mu.Lock(); defer mu.Unlock(); return len(seen) }

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 2*time.Millisecond)
	d.setPID(20)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 2*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}

func TestOwnWindowKeepsPreviousStatus(t *testing.T) {
	d := &fakeDesktop{pid: 30}
	tr := newTracker("gta5", d)
	assert.False(t, tr.Active(), "own window before any other is seen")
	assert.Zero(t, d.lookups.Load())

	d.setPID(10)
	require.True(t, tr.Active())
	d.setPID(30)
	st := tr.Status()
	assert.True(t, st.Active, "clicking an overlay keeps the game active")
	assert.Equal(t, "gta5", st.Process)

	d.setPID(20)
	assert.False(t, tr.Active())
	d.setPID(30)
	assert.False(t, tr.Active())
}
