package hotkey

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParse(t *testing.T) {
	c, err := Parse("Ctrl+Shift+F12")
	require.NoError(t, err)
	assert.Equal(t, ModCtrl|ModShift, c.Mods)
	assert.Equal(t, uint16(0x7B), c.Key.VK)
	assert.Equal(t, "ctrl+shift+f12", c.String())

	c, err = Parse("escape")
	require.NoError(t, err)
	assert.Equal(t, "esc", c.String())
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "ctrl", "ctrl+", "a+b", "hyper+x", "f25"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestMatchesExactModifiers(t *testing.T) {
	c, _ := Parse("ctrl+e")
	assert.True(t, c.Matches(KeyEvent{VK: 0x45, Down: true, Mods: ModCtrl}))
	assert.False(t, c.Matches(KeyEvent{VK: 0x45, Down: true, Mods: ModCtrl | ModShift}))
	assert.False(t, c.Matches(KeyEvent{VK: 0x45, Down: true}))
	assert.False(t, c.Matches(KeyEvent{VK: 0x45, Mods: ModCtrl}))
}

func TestNumpadDistinctFromNavigation(t *testing.T) {
	num7, _ := Parse("numpad7")
	home, _ := Parse("home")

	// Numpad 7 with num lock off reports VK_HOME without the extended flag.
	numOff := KeyEvent{VK: 0x24, Scan: 0x47, Down: true}
	numOn := KeyEvent{VK: 0x67, Scan: 0x47, Down: true}
	navHome := KeyEvent{VK: 0x24, Scan: 0x47, Extended: true, Down: true}

	assert.True(t, num7.Matches(numOff))
	assert.True(t, num7.Matches(numOn))
	assert.False(t, num7.Matches(navHome))
	assert.False(t, home.Matches(numOff))
	assert.True(t, home.Matches(navHome))
}

func TestEnterVersusNumpadEnter(t *testing.T) {
	enter, _ := Parse("enter")
	numEnter, _ := Parse("numpadenter")
	main := KeyEvent{VK: 0x0D, Scan: 0x1C, Down: true}
	pad := KeyEvent{VK: 0x0D, Scan: 0x1C, Extended: true, Down: true}
	assert.True(t, enter.Matches(main))
	assert.False(t, enter.Matches(pad))
	assert.True(t, numEnter.Matches(pad))
	assert.False(t, numEnter.Matches(main))
}

type firedLog struct {
	mu      sync.Mutex
	actions []string
}

func (f *firedLog) cb(action string) {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
}

func (f *firedLog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func TestDispatcherEdgeTriggered(t *testing.T) {
	d := NewDispatcher(discardLogger())
	log := &firedLog{}
	require.NoError(t, d.Register(Binding{Action: "toggle:chat", Keys: "f1"}, log.cb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	down := KeyEvent{VK: 0x70, Scan: 0x3B, Down: true}
	up := KeyEvent{VK: 0x70, Scan: 0x3B}
	d.Handle(down)
	d.Handle(down) // auto-repeat
	d.Handle(down)
	d.Handle(up)
	d.Handle(down)

	require.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"toggle:chat", "toggle:chat"}, log.snapshot())
}

func TestDispatcherSeveralBindingsSameKey(t *testing.T) {
	d := NewDispatcher(discardLogger())
	log := &firedLog{}
	require.NoError(t, d.Register(Binding{Action: "deactivate:chat", Keys: "enter"}, log.cb))
	require.NoError(t, d.Register(Binding{Action: "deactivate:commands", Keys: "return"}, log.cb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Handle(KeyEvent{VK: 0x0D, Scan: 0x1C, Down: true})
	require.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"deactivate:chat", "deactivate:commands"}, log.snapshot())
}

func TestDispatcherIgnoresModifierKeys(t *testing.T) {
	d := NewDispatcher(discardLogger())
	log := &firedLog{}
	require.NoError(t, d.Register(Binding{Action: "x", Keys: "ctrl+shift+f12"}, log.cb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Handle(KeyEvent{VK: 0xA2, Down: true, Mods: ModCtrl})
	d.Handle(KeyEvent{VK: 0xA0, Down: true, Mods: ModCtrl | ModShift})
	d.Handle(KeyEvent{VK: 0x7B, Down: true, Mods: ModCtrl | ModShift})
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRegisterRejectsBadCombo(t *testing.T) {
	d := NewDispatcher(discardLogger())
	err := d.Register(Binding{Action: "bad", Keys: "ctrl+nope"}, nil)
	require.ErrorIs(t, err, ErrRegistrationFailed)
	require.NoError(t, d.Register(Binding{Action: "good", Keys: "f2"}, nil))

	regs := d.Bindings()
	require.Len(t, regs, 1)
	assert.Equal(t, "good", regs[0].Action)
}

func TestCallbackPanicDoesNotStopDispatch(t *testing.T) {
	d := NewDispatcher(discardLogger())
	log := &firedLog{}
	require.NoError(t, d.Register(Binding{Action: "boom", Keys: "f3"}, func(string) { panic("x") }))
	require.NoError(t, d.Register(Binding{Action: "ok", Keys: "f4"}, log.cb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Handle(KeyEvent{VK: 0x72, Down: true})
	d.Handle(KeyEvent{VK: 0x73, Down: true})
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}
