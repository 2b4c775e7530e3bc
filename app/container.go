package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/pixel-assist-go/assets"
	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/action"
	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/engine"
	"github.com/soocke/pixel-assist-go/domain/geometry"
	"github.com/soocke/pixel-assist-go/domain/hotkey"
	"github.com/soocke/pixel-assist-go/domain/inject"
	"github.com/soocke/pixel-assist-go/domain/target"
	"github.com/soocke/pixel-assist-go/domain/visibility"
	"github.com/soocke/pixel-assist-go/storage"
	"github.com/soocke/pixel-assist-go/ui/model"
	"github.com/soocke/pixel-assist-go/ui/presenter"
	"github.com/soocke/pixel-assist-go/ui/tray"
	"github.com/soocke/pixel-assist-go/ui/view"
)

// Options select which outer surfaces are built.
type Options struct {
	Headless bool // no Tk windows; overlays only log their transitions
	Tray     bool
}

// AppContainer assembles services, models, presenters and views.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Options    Options

	Store      *storage.DB
	Signal     *storage.FileSignal
	Normalizer *geometry.Normalizer
	Backend    capture.Backend
	Injector   *inject.Injector
	Target     *target.Tracker
	Hotkeys    *hotkey.Dispatcher
	Engine     *engine.Engine

	Windows  []*view.OverlayWindow
	Overlays *model.OverlayModel
	Session  *model.SessionModel
	RootView *view.RootView
	UI       view.UI
	Tray     *tray.Manager

	// Presenters
	OverlayPresenter    *presenter.OverlayPresenter
	AutomationPresenter *presenter.AutomationPresenter
	TargetPresenter     *presenter.TargetPresenter
	SessionPresenter    *presenter.SessionPresenter
	HotkeyPresenter     *presenter.HotkeyPresenter
	Loop                *presenter.Loop
}

// BuildContainer constructs every component. Nothing is started; the caller
// owns Close.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger, opts Options) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger, Options: opts}

	if err := capture.Available(); err != nil {
		return nil, fmt.Errorf("screen sampling: %w", err)
	}
	c.Backend = capture.NewBackend()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	c.Store, err = storage.Open(dataDir)
	if err != nil {
		return nil, err
	}
	c.Signal = storage.NewFileSignal(dataDir, cfg.CounterFile)

	c.Normalizer = geometry.NewNormalizer(geometry.ReferenceFrame{Width: cfg.ReferenceWidth, Height: cfg.ReferenceHeight}, logger)
	c.Injector, err = NewInjector(cfg.Injector, c.Normalizer, []inject.CounterSink{c.Store, c.Signal}, c.Store, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Target = target.NewTracker(cfg.TargetProcess, logger)
	c.Hotkeys = hotkey.NewDispatcher(logger)

	c.Engine, err = engine.New(cfg, engine.Deps{
		Backend: c.Backend,
		Mapper:  c.Normalizer,
		Cursor:  engine.OSCursor(),
		Target:  c.Target.Active,
		Sender:  c.Injector,
		Windows: c.windowFactory(),
		Hotkeys: c.Hotkeys,
		Listener: func(ctx context.Context, d *hotkey.Dispatcher) error {
			return hotkey.Listen(ctx, d, logger)
		},
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	if opts.Tray {
		c.Tray = tray.New(assets.TrayICO(), trayTooltip(cfg), cfg.AutomationEnabled, tray.Controls{
			SetAutomation: c.Engine.SetAutomation,
		}, logger)
		c.Engine.OnHotkey(c.Tray.NotifyHotkey)
	}
	if !opts.Headless {
		c.buildPresenters()
	}
	c.Engine.OnSend(func(command string, res inject.Result) {
		if res.OK && logger != nil {
			logger.Info("command sent", "command", command, "verified", res.Verified)
		}
	})
	c.Engine.OnHotkey(func(action string) {
		if logger != nil {
			logger.Info("hotkey fired", "action", action)
		}
	})
	return c, nil
}

// NewInjector builds the clipboard injector on the platform input backends.
func NewInjector(ic config.InjectorConfig, mapper inject.Mapper, counters []inject.CounterSink, history inject.HistoryRecorder, logger *slog.Logger) (*inject.Injector, error) {
	icfg, err := engine.BuildInjectorConfig(ic)
	if err != nil {
		return nil, err
	}
	opts := engine.BuildActionOptions(ic)
	return inject.New(inject.Deps{
		Keyboard:  action.NewKeyboard(opts),
		Pointer:   action.NewPointer(),
		Clipboard: action.NewClipboard(opts),
		Mapper:    mapper,
		Counters:  counters,
		History:   history,
	}, icfg, logger), nil
}

func trayTooltip(cfg *config.Config) string {
	if cfg.TargetProcess == "" {
		return "Pixel Assist"
	}
	return "Pixel Assist - " + cfg.TargetProcess
}

// windowFactory returns Tk overlay windows, or logging stand-ins when headless.
// The window callbacks resolve the engine lazily because the engine creates
// the machines after asking for the windows.
func (c *AppContainer) windowFactory() engine.WindowFactory {
	if c.Options.Headless {
		return func(pc config.ProfileConfig) visibility.Window {
			return &logWindow{name: pc.Name, logger: c.Logger}
		}
	}
	place := func(p geometry.Point) image.Point { return c.Normalizer.Normalize(p) }
	return func(pc config.ProfileConfig) visibility.Window {
		name := pc.Name
		machine := func(fn func(m *visibility.Machine)) {
			if c.Engine == nil {
				return
			}
			if o, ok := c.Engine.Overlay(name); ok {
				fn(o.Machine)
			}
		}
		title := pc.Window.Title
		if title == "" {
			title = name
		}
		w := view.NewOverlayWindow(view.OverlaySpec{
			Name:     name,
			Title:    title,
			Anchor:   geometry.Point{X: pc.Window.X, Y: pc.Window.Y},
			Columns:  pc.Window.Columns,
			Commands: pc.Commands,
		}, view.OverlayCallbacks{
			Send: func(command string) {
				if c.Engine != nil {
					c.Engine.HandleAction("send:" + command)
				}
			},
			PointerEnter: func() { machine((*visibility.Machine).PointerEnter) },
			PointerLeave: func() { machine((*visibility.Machine).PointerLeave) },
		}, place, c.Logger)
		c.Windows = append(c.Windows, w)
		return w
	}
}

func (c *AppContainer) buildPresenters() {
	c.RootView = view.NewRootView(c.Config, c.ConfigPath, c.Logger)
	c.UI = c.RootView

	c.Overlays = model.NewOverlayModel()
	var sources []presenter.OverlaySource
	for _, o := range c.Engine.Overlays() {
		sources = append(sources, presenter.OverlaySource{
			Name:    o.Name(),
			Machine: o.Machine,
			Last:    o.Poller.LastResult,
			Polls:   o.Poller.Polls,
		})
	}
	c.OverlayPresenter = presenter.NewOverlayPresenter(c.Overlays, c.UI, sources)
	for _, o := range c.Engine.Overlays() {
		o.Machine.AddListener(c.OverlayPresenter.OnTransition)
	}

	c.AutomationPresenter = presenter.NewAutomationPresenter(c.Engine, c.UI)
	c.Engine.OnAutomation(c.AutomationPresenter.OnAutomation)
	if c.Tray != nil {
		c.AutomationPresenter.AddMirror(c.Tray.SetAutomation)
	}

	interval := time.Duration(c.Config.TargetPollMillis) * time.Millisecond
	c.TargetPresenter = presenter.NewTargetPresenter(c.Target, c.UI, interval, c.Logger)

	c.Session = model.NewSessionModel()
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.Engine, c.Store, c.UI, c.Logger)
	c.Engine.OnSend(c.SessionPresenter.OnSend)

	c.HotkeyPresenter = presenter.NewHotkeyPresenter(c.UI)
	c.Engine.OnHotkey(c.HotkeyPresenter.OnHotkey)
	c.Engine.OnSend(func(command string, res inject.Result) {
		if res.OK {
			c.SessionPresenter.Refresh(context.Background())
		}
	})
}

// ApplyInjector hot-swaps injector settings edited in the control window.
func (c *AppContainer) ApplyInjector(cfg *config.Config) {
	icfg, err := engine.BuildInjectorConfig(cfg.Injector)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("injector settings not applied", "error", err)
		}
		return
	}
	c.Injector.SetConfig(icfg)
}

// Close stops the engine and releases storage.
func (c *AppContainer) Close() {
	if c.Engine != nil {
		c.Engine.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil && c.Logger != nil {
			c.Logger.Warn("storage close failed", "error", err)
		}
	}
}

// logWindow stands in for an overlay when no UI is running.
type logWindow struct {
	name   string
	logger *slog.Logger
}

func (w *logWindow) Show() {
	if w.logger != nil {
		w.logger.Info("overlay shown", "overlay", w.name)
	}
}

func (w *logWindow) Hide() {
	if w.logger != nil {
		w.logger.Info("overlay hidden", "overlay", w.name)
	}
}
