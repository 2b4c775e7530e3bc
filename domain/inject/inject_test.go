package inject

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-assist-go/domain/action"
	"github.com/soocke/pixel-assist-go/domain/geometry"
)

// fakeDesktop simulates the clipboard and a single focused text field.
type fakeDesktop struct {
	mu         sync.Mutex
	clipboard  string
	field      string
	layout     uint16
	switchFail bool
	setFail    func(text string) bool
	mangle     bool
	events     []string
	clicks     []image.Point
	pos        image.Point
}

func (d *fakeDesktop) Get() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard, nil
}

func (d *fakeDesktop) Set(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setFail != nil && d.setFail(text) {
		return fmt.Errorf("open: %w", action.ErrClipboardBusy)
	}
	d.clipboard = text
	return nil
}

func (d *fakeDesktop) Tap(vk uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, fmt.Sprintf("tap:%02x", vk))
	return nil
}

func (d *fakeDesktop) Chord(mod, vk uint16) error {
	time.Sleep(time.Millisecond)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, fmt.Sprintf("chord:%02x+%02x", mod, vk))
	switch vk {
	case action.VKV:
		d.field = d.clipboard
		if d.mangle {
			d.field += "?"
		}
	case action.VKC:
		d.clipboard = d.field
	}
	return nil
}

func (d *fakeDesktop) Layout() (uint16, error) { return d.layout, nil }

func (d *fakeDesktop) SwitchLayout(id uint16) error {
	if d.switchFail {
		return errors.New("denied")
	}
	d.layout = id
	return nil
}

func (d *fakeDesktop) Position() (image.Point, error) { return d.pos, nil }
func (d *fakeDesktop) MoveTo(p image.Point) error     { d.pos = p; return nil }
func (d *fakeDesktop) Click(p image.Point) error {
	d.clicks = append(d.clicks, p)
	d.pos = p
	return nil
}

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (c *countingSink) Increment(context.Context, string) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []Entry
}

func (h *memHistory) Record(_ context.Context, e Entry) error {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return nil
}

func newTestInjector(d *fakeDesktop, cfg Config) (*Injector, *countingSink, *memHistory) {
	sink := &countingSink{}
	hist := &memHistory{}
	mapper := geometry.NewNormalizer(geometry.DefaultReference, nil, geometry.Fixed(image.Rect(0, 0, 960, 540)))
	in := New(Deps{Keyboard: d, Pointer: d, Clipboard: d, Mapper: mapper, Counters: []CounterSink{sink}, History: hist}, cfg, nil)
	in.sleep = func(time.Duration) {}
	in.pick = func(int) int { return 0 }
	return in, sink, hist
}

func TestSend_HappyPath(t *testing.T) {
	d := &fakeDesktop{clipboard: "original", layout: 0x0409, pos: image.Pt(7, 7)}
	in, sink, hist := newTestInjector(d, Config{InputPoint: geometry.Point{X: 1405, Y: 1033}})

	res := in.Send(context.Background(), Command{Name: "help", Responses: []string{"/help"}, AutoSubmit: true, CountsTowardCounter: true})
	require.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.True(t, res.Verified)
	assert.Equal(t, "/help", d.field)
	assert.Equal(t, "original", d.clipboard)
	assert.Equal(t, []image.Point{{X: 702, Y: 516}}, d.clicks)
	assert.Equal(t, image.Pt(7, 7), d.pos, "pointer restored")
	assert.Equal(t, []string{"chord:11+56", "chord:11+41", "chord:11+43", "tap:27", "tap:0d"}, d.events)
	assert.Equal(t, 1, sink.n)
	require.Len(t, hist.entries, 1)
	assert.True(t, hist.entries[0].OK)
}

func TestSend_EmptyCommandHasNoSideEffects(t *testing.T) {
	d := &fakeDesktop{clipboard: "keep"}
	in, sink, hist := newTestInjector(d, Config{})
	res := in.Send(context.Background(), Command{Name: "blank", Responses: []string{"", "   "}, CountsTowardCounter: true})
	assert.ErrorIs(t, res.Err, ErrEmptyCommand)
	assert.Empty(t, d.events)
	assert.Equal(t, "keep", d.clipboard)
	assert.Zero(t, sink.n)
	assert.Empty(t, hist.entries)
}

func TestSend_ClipboardWriteFailureRestores(t *testing.T) {
	d := &fakeDesktop{clipboard: "original", layout: 0x0409}
	d.setFail = func(text string) bool { return text == "/report" }
	in, sink, hist := newTestInjector(d, Config{})

	res := in.Send(context.Background(), Command{Name: "report", Responses: []string{"/report"}, CountsTowardCounter: true})
	assert.ErrorIs(t, res.Err, ErrClipboardBusy)
	assert.False(t, res.OK)
	assert.Equal(t, "original", d.clipboard)
	assert.Empty(t, d.events)
	assert.Zero(t, sink.n)
	require.Len(t, hist.entries, 1)
	assert.NotEmpty(t, hist.entries[0].Error)
}

func TestSend_VerificationMismatchIsWarning(t *testing.T) {
	d := &fakeDesktop{clipboard: "x", layout: 0x0409, mangle: true}
	in, _, _ := newTestInjector(d, Config{SkipClick: true})
	res := in.Send(context.Background(), Command{Name: "a", Responses: []string{"hello"}})
	assert.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.False(t, res.Verified)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], ErrVerificationMismatch)
	assert.Equal(t, "x", d.clipboard)
}

func TestSend_VerificationIgnoresCaseAndSpace(t *testing.T) {
	d := &fakeDesktop{layout: 0x0409}
	in, _, _ := newTestInjector(d, Config{SkipClick: true})
	in.deps.Keyboard = &caseFlipper{fakeDesktop: d}
	res := in.Send(context.Background(), Command{Name: "a", Responses: []string{"Hello"}})
	assert.True(t, res.Verified)
}

// caseFlipper pastes an upper-cased copy padded with spaces.
type caseFlipper struct{ *fakeDesktop }

func (c *caseFlipper) Chord(mod, vk uint16) error {
	if err := c.fakeDesktop.Chord(mod, vk); err != nil {
		return err
	}
	if vk == action.VKV {
		c.mu.Lock()
		c.field = "  HELLO \n"
		c.mu.Unlock()
	}
	return nil
}

func TestSend_LayoutSwitch(t *testing.T) {
	d := &fakeDesktop{layout: 0x0419}
	in, _, _ := newTestInjector(d, Config{SkipClick: true})
	res := in.Send(context.Background(), Command{Name: "a", Responses: []string{"hi"}})
	assert.Empty(t, res.Warnings)
	assert.EqualValues(t, 0x0409, d.layout)

	d2 := &fakeDesktop{layout: 0x0419, switchFail: true}
	in2, _, _ := newTestInjector(d2, Config{SkipClick: true})
	res2 := in2.Send(context.Background(), Command{Name: "a", Responses: []string{"hi"}})
	assert.True(t, res2.OK, "layout failure continues")
	require.NotEmpty(t, res2.Warnings)
	assert.ErrorIs(t, res2.Warnings[0], ErrLayoutSwitchFailed)
}

func TestSend_SingleFlight(t *testing.T) {
	d := &fakeDesktop{clipboard: "orig", layout: 0x0409}
	in, sink, _ := newTestInjector(d, Config{SkipClick: true})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.Send(context.Background(), Command{Name: "c", Responses: []string{"text"}, CountsTowardCounter: true})
		}()
	}
	wg.Wait()

	want := []string{"chord:11+56", "chord:11+41", "chord:11+43", "tap:27"}
	require.Len(t, d.events, 8*len(want))
	for i := 0; i < len(d.events); i += len(want) {
		assert.Equal(t, want, d.events[i:i+len(want)], "transaction %d interleaved", i/len(want))
	}
	assert.Equal(t, "orig", d.clipboard)
	assert.Equal(t, 8, sink.n)
}

func TestSend_RejectWhenBusy(t *testing.T) {
	d := &fakeDesktop{layout: 0x0409}
	in, _, _ := newTestInjector(d, Config{RejectWhenBusy: true, SkipClick: true})
	in.guard <- struct{}{} // simulate in-flight send
	res := in.Send(context.Background(), Command{Name: "c", Responses: []string{"x"}})
	assert.ErrorIs(t, res.Err, ErrBusy)
	<-in.guard
}

func TestSend_ContextCancelledWhileWaiting(t *testing.T) {
	d := &fakeDesktop{layout: 0x0409}
	in, _, _ := newTestInjector(d, Config{SkipClick: true})
	in.guard <- struct{}{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := in.Send(ctx, Command{Name: "c", Responses: []string{"x"}})
	assert.ErrorIs(t, res.Err, context.Canceled)
	<-in.guard
}

// snapshotPanic panics on the first clipboard read only.
type snapshotPanic struct {
	*fakeDesktop
	reads int
}

func (p *snapshotPanic) Get() (string, error) {
	p.reads++
	if p.reads == 1 {
		panic("clipboard read blew up")
	}
	return p.fakeDesktop.Get()
}

func TestSend_PanicInSnapshotReleasesGuard(t *testing.T) {
	d := &fakeDesktop{clipboard: "orig", layout: 0x0409}
	in, _, hist := newTestInjector(d, Config{SkipClick: true})
	in.deps.Clipboard = &snapshotPanic{fakeDesktop: d}

	var first Result
	require.NotPanics(t, func() {
		first = in.Send(context.Background(), Command{Name: "a", Responses: []string{"one"}})
	})
	assert.False(t, first.OK)
	require.Error(t, first.Err)
	assert.Contains(t, first.Err.Error(), "clipboard read blew up")
	assert.Equal(t, "orig", d.clipboard, "clipboard untouched before the snapshot")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	second := in.Send(ctx, Command{Name: "b", Responses: []string{"two"}})
	require.NoError(t, second.Err)
	assert.True(t, second.OK)
	assert.Equal(t, "orig", d.clipboard)
	assert.Len(t, hist.entries, 2)
}

func TestChooseText(t *testing.T) {
	txt, ok := ChooseText([]string{"", "a", " ", "b"}, func(n int) int { return n - 1 })
	assert.True(t, ok)
	assert.Equal(t, "b", txt)
	txt, ok = ChooseText([]string{"only"}, nil)
	assert.True(t, ok)
	assert.Equal(t, "only", txt)
	_, ok = ChooseText(nil, nil)
	assert.False(t, ok)
}

func TestSetConfigAppliesToNextSend(t *testing.T) {
	d := &fakeDesktop{clipboard: "keep", layout: 0x0409}
	in, _, _ := newTestInjector(d, Config{Layout: 0x0409})
	in.SetConfig(Config{SkipClick: true, SkipVerify: true})

	res := in.Send(context.Background(), Command{Name: "x", Responses: []string{"hello"}})
	require.True(t, res.OK)
	assert.False(t, res.Verified, "nothing was read back")
	assert.Empty(t, d.clicks)
	assert.Equal(t, []string{"chord:11+56", "tap:27"}, d.events)
	assert.Equal(t, uint16(0x0409), in.config().Layout)
}
