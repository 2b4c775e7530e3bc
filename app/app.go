package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/pixel-assist-go/debug"
	"github.com/soocke/pixel-assist-go/ui/presenter"
	"github.com/soocke/pixel-assist-go/ui/theme"
	"github.com/soocke/pixel-assist-go/ui/view"
)

const (
	tick          = 100 * time.Millisecond
	debugInterval = 5 * time.Second
)

type app struct {
	c       *AppContainer
	width   int
	height  int
	ctx     context.Context
	cancel  context.CancelFunc
	afterID string
	closing bool
}

// NewApp prepares the control window. The container must have been built
// without Options.Headless.
func NewApp(title string, width, height int, c *AppContainer) *app {
	a := &app{c: c, width: width, height: height}

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the widgets, starts the engine and blocks in the Tk event loop
// until the window closes or ctx ends.
func (a *app) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	c := a.c
	theme.InitStyles()

	names := make([]string, 0, len(c.Engine.Overlays()))
	for _, o := range c.Engine.Overlays() {
		names = append(names, o.Name())
	}
	c.RootView.Build(names, view.RootCallbacks{
		ToggleAutomation: c.AutomationPresenter.Toggle,
		ToggleOverlay:    func(name string) { c.Engine.HandleAction("toggle:" + name) },
		ToggleDark:       func() { theme.ToggleDark() },
		Exit:             a.exitHandler,
		InjectorApplied:  c.ApplyInjector,
	})

	appliers := make([]presenter.Applier, 0, len(c.Windows))
	for _, w := range c.Windows {
		appliers = append(appliers, w)
	}
	c.Loop = presenter.NewLoop(c.OverlayPresenter, c.AutomationPresenter, c.TargetPresenter, c.SessionPresenter, appliers, a.scheduleUpdate)
	c.Loop.Hotkeys = c.HotkeyPresenter

	startBackground(a.ctx, c)
	c.TargetPresenter.Start(a.ctx)
	c.SessionPresenter.Refresh(a.ctx)
	// Push the initial flag through the presenter so view and tray agree.
	c.AutomationPresenter.OnAutomation(c.Engine.Automation())

	a.scheduleUpdate()
	App.Wait()
	a.shutdown()
}

func (a *app) update() {
	if a.closing {
		return
	}
	if a.ctx.Err() != nil {
		a.exitHandler()
		return
	}
	if a.c.Tray != nil {
		select {
		case <-a.c.Tray.Done():
			a.exitHandler()
			return
		default:
		}
	}
	a.c.Loop.Tick()
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}

func (a *app) exitHandler() {
	if a.closing {
		return
	}
	a.closing = true
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	Destroy(App)
}

func (a *app) shutdown() {
	a.cancel()
	if a.c.Tray != nil {
		a.c.Tray.Stop()
	}
	a.c.Close()
}

// RunHeadless starts the engine without any Tk window and blocks until ctx
// ends or the tray Quit entry is used.
func RunHeadless(ctx context.Context, c *AppContainer) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.Engine.OnAutomation(func(on bool) {
		if c.Tray != nil {
			c.Tray.SetAutomation(on)
		}
		if c.Logger != nil {
			c.Logger.Info("automation changed", "enabled", on)
		}
	})
	startBackground(ctx, c)
	if c.Tray != nil {
		select {
		case <-ctx.Done():
		case <-c.Tray.Done():
		}
		c.Tray.Stop()
	} else {
		<-ctx.Done()
	}
	cancel()
	c.Close()
}

func startBackground(ctx context.Context, c *AppContainer) {
	if c.Config.Debug {
		debug.StartGoroutineLogger(ctx, debugInterval, c.Logger)
		debug.StartMemLogger(ctx, debugInterval, c.Logger)
	}
	if c.Tray != nil {
		go c.Tray.Run()
	}
	c.Engine.Start(ctx)
	if c.Logger != nil {
		c.Logger.Info("engine started",
			slog.Int("overlays", len(c.Engine.Overlays())),
			slog.Int("hotkeys", len(c.Hotkeys.Bindings())),
			slog.Bool("automation", c.Engine.Automation()),
			slog.String("target", c.Target.Name()),
		)
	}
}
