// Package engine wires detection profiles to their overlay machines and routes
// hotkey actions and command sends.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/detect"
	"github.com/soocke/pixel-assist-go/domain/hotkey"
	"github.com/soocke/pixel-assist-go/domain/inject"
	"github.com/soocke/pixel-assist-go/domain/visibility"
)

// Action ids understood by the router.
const (
	ActionToggleAutomation = "toggle_automation"
	prefixActivate         = "activate:"
	prefixDeactivate       = "deactivate:"
	prefixToggle           = "toggle:"
	prefixSend             = "send:"
)

// ErrUnknownCommand is returned by Send for a name with no command config.
var ErrUnknownCommand = errors.New("engine: unknown command")

// Sender is the injector as seen by the engine.
type Sender interface {
	Send(ctx context.Context, cmd inject.Command) inject.Result
}

// WindowFactory creates the show/hide surface of one overlay. It may return nil.
type WindowFactory func(p config.ProfileConfig) visibility.Window

// Deps are the collaborators the engine does not own.
type Deps struct {
	Backend  capture.Backend
	Mapper   detect.Mapper
	Cursor   detect.CursorReader
	Target   visibility.Gate
	Sender   Sender
	Windows  WindowFactory
	Hotkeys  *hotkey.Dispatcher
	Listener func(ctx context.Context, d *hotkey.Dispatcher) error
}

// Overlay is one profile with its detector, machine and poller.
type Overlay struct {
	Config   config.ProfileConfig
	Machine  *visibility.Machine
	Poller   *visibility.Poller
	Detector *detect.Detector
	Sampler  *capture.BitmapSampler
}

// Name is the profile name.
func (o *Overlay) Name() string { return o.Config.Name }

// Engine owns the overlays and the automation flag.
type Engine struct {
	logger   *slog.Logger
	deps     Deps
	overlays []*Overlay
	byName   map[string]*Overlay
	commands atomic.Pointer[map[string]inject.Command]

	automation atomic.Bool

	mu             sync.Mutex
	autoListeners  []func(bool)
	actionHandlers []func(string)
	hotkeyHandlers []func(string)
	sendListeners  []func(string, inject.Result)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
}

// New builds overlays for every profile in cfg. cfg must be validated.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Engine, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("engine: %w", capture.ErrSamplingUnavailable)
	}
	if deps.Mapper == nil {
		return nil, errors.New("engine: mapper required")
	}
	e := &Engine{logger: logger, deps: deps, byName: make(map[string]*Overlay)}
	e.automation.Store(cfg.AutomationEnabled)
	e.setCommands(cfg.Commands)

	thresholds := BuildThresholds(cfg.Geometry)
	for _, pc := range cfg.Profiles {
		profile := BuildProfile(pc)
		var win visibility.Window
		if deps.Windows != nil {
			win = deps.Windows(pc)
		}
		sampler := capture.NewBitmapSampler(deps.Backend, logger)
		det := detect.NewDetector(deps.Mapper, sampler, deps.Cursor, logger, detect.WithThresholds(thresholds))
		m := visibility.NewMachine(pc.Name, win, visibility.Options{
			Debounce:    profile.Debounce,
			StartActive: profile.StartActive,
			Enabled:     cfg.AutomationEnabled,
		}, logger)
		p := visibility.NewPoller(profile, det, m, e.automation.Load, deps.Target, logger)
		o := &Overlay{Config: pc, Machine: m, Poller: p, Detector: det, Sampler: sampler}
		e.overlays = append(e.overlays, o)
		e.byName[pc.Name] = o
	}
	if deps.Hotkeys != nil {
		for _, b := range BuildBindings(cfg.Hotkeys) {
			// A bad combination only loses its own binding.
			_ = deps.Hotkeys.Register(b, e.hotkeyFired)
		}
	}
	return e, nil
}

func (e *Engine) setCommands(cc []config.CommandConfig) {
	m := make(map[string]inject.Command, len(cc))
	for _, c := range cc {
		m[c.Name] = BuildCommand(c)
	}
	e.commands.Store(&m)
}

// Start launches pollers, the hotkey router and the keyboard listener.
func (e *Engine) Start(ctx context.Context) {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	for _, o := range e.overlays {
		e.goSafe("poller", func() { o.Poller.Run(e.ctx) })
	}
	if e.deps.Hotkeys != nil {
		e.goSafe("hotkey router", func() { e.deps.Hotkeys.Run(e.ctx) })
		if e.deps.Listener != nil {
			if err := e.deps.Listener(e.ctx, e.deps.Hotkeys); err != nil && e.logger != nil {
				e.logger.Warn("hotkeys disabled", "error", err)
			}
		}
	}
	if e.logger != nil {
		e.logger.Info("engine started", "overlays", len(e.overlays), "automation", e.automation.Load())
	}
}

func (e *Engine) goSafe(name string, fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil && e.logger != nil {
				e.logger.Error("engine goroutine panic", "goroutine", name, "error", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}

// Close stops goroutines and closes the machines.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	for _, o := range e.overlays {
		o.Machine.Close()
	}
}

// Overlays lists overlays in config order.
func (e *Engine) Overlays() []*Overlay { return append([]*Overlay(nil), e.overlays...) }

// Overlay looks up an overlay by profile name.
func (e *Engine) Overlay(name string) (*Overlay, bool) {
	o, ok := e.byName[name]
	return o, ok
}

// Automation reports the global automation flag.
func (e *Engine) Automation() bool { return e.automation.Load() }

// SetAutomation switches detection for all overlays.
func (e *Engine) SetAutomation(on bool) {
	if e.automation.Swap(on) == on {
		return
	}
	for _, o := range e.overlays {
		o.Machine.SetEnabled(on)
	}
	if e.logger != nil {
		e.logger.Info("automation", "enabled", on)
	}
	e.mu.Lock()
	ls := append([]func(bool)(nil), e.autoListeners...)
	e.mu.Unlock()
	for _, l := range ls {
		l(on)
	}
}

// ToggleAutomation flips the automation flag.
func (e *Engine) ToggleAutomation() { e.SetAutomation(!e.automation.Load()) }

// OnAutomation registers a listener for automation flag changes.
func (e *Engine) OnAutomation(fn func(bool)) {
	e.mu.Lock()
	e.autoListeners = append(e.autoListeners, fn)
	e.mu.Unlock()
}

// OnAction registers a handler for action ids the router does not know.
func (e *Engine) OnAction(fn func(string)) {
	e.mu.Lock()
	e.actionHandlers = append(e.actionHandlers, fn)
	e.mu.Unlock()
}

// OnHotkey registers a listener called with the action id of every hotkey
// firing, before the action is routed.
func (e *Engine) OnHotkey(fn func(action string)) {
	e.mu.Lock()
	e.hotkeyHandlers = append(e.hotkeyHandlers, fn)
	e.mu.Unlock()
}

func (e *Engine) hotkeyFired(action string) {
	e.mu.Lock()
	hs := append([]func(string)(nil), e.hotkeyHandlers...)
	e.mu.Unlock()
	for _, h := range hs {
		h(action)
	}
	e.HandleAction(action)
}

// OnSend registers a listener for completed sends.
func (e *Engine) OnSend(fn func(command string, res inject.Result)) {
	e.mu.Lock()
	e.sendListeners = append(e.sendListeners, fn)
	e.mu.Unlock()
}

// HandleAction routes one action id. It never blocks on a send.
func (e *Engine) HandleAction(action string) {
	if e.logger != nil {
		e.logger.Debug("action", "action", action)
	}
	switch {
	case action == ActionToggleAutomation:
		e.ToggleAutomation()
	case strings.HasPrefix(action, prefixActivate):
		e.withOverlay(action, prefixActivate, func(o *Overlay) { o.Machine.Activate() })
	case strings.HasPrefix(action, prefixDeactivate):
		e.withOverlay(action, prefixDeactivate, func(o *Overlay) { o.Machine.Deactivate() })
	case strings.HasPrefix(action, prefixToggle):
		e.withOverlay(action, prefixToggle, func(o *Overlay) { o.Machine.Toggle() })
	case strings.HasPrefix(action, prefixSend):
		name := strings.TrimPrefix(action, prefixSend)
		e.goSafe("send "+name, func() { e.Send(e.context(), name) })
	default:
		e.mu.Lock()
		hs := append([]func(string)(nil), e.actionHandlers...)
		e.mu.Unlock()
		for _, h := range hs {
			h(action)
		}
	}
}

func (e *Engine) withOverlay(action, prefix string, fn func(*Overlay)) {
	name := strings.TrimPrefix(action, prefix)
	o, ok := e.byName[name]
	if !ok {
		if e.logger != nil {
			e.logger.Warn("action for unknown overlay", "action", action)
		}
		return
	}
	fn(o)
}

func (e *Engine) context() context.Context {
	if e.ctx != nil {
		return e.ctx
	}
	return context.Background()
}

// Command returns the command config by name.
func (e *Engine) Command(name string) (inject.Command, bool) {
	c, ok := (*e.commands.Load())[name]
	return c, ok
}

// Send runs the injection transaction for a named command.
func (e *Engine) Send(ctx context.Context, name string) inject.Result {
	cmd, ok := e.Command(name)
	var res inject.Result
	switch {
	case !ok:
		res = inject.Result{Err: fmt.Errorf("%w: %q", ErrUnknownCommand, name)}
	case e.deps.Sender == nil:
		res = inject.Result{Err: errors.New("engine: no injector")}
	default:
		res = e.deps.Sender.Send(ctx, cmd)
	}
	if res.Err != nil && e.logger != nil {
		e.logger.Warn("send failed", "command", name, "error", res.Err)
	}
	e.mu.Lock()
	ls := append([]func(string, inject.Result)(nil), e.sendListeners...)
	e.mu.Unlock()
	for _, l := range ls {
		l(name, res)
	}
	return res
}

// Reload swaps profiles and commands from a new validated config. Profiles are
// matched by name; new or removed profiles need a restart.
func (e *Engine) Reload(cfg *config.Config) {
	e.setCommands(cfg.Commands)
	for _, pc := range cfg.Profiles {
		o, ok := e.byName[pc.Name]
		if !ok {
			if e.logger != nil {
				e.logger.Warn("new profile ignored until restart", "profile", pc.Name)
			}
			continue
		}
		o.Poller.SetProfile(BuildProfile(pc))
	}
	e.SetAutomation(cfg.AutomationEnabled)
	if e.logger != nil {
		e.logger.Info("configuration reloaded", "profiles", len(cfg.Profiles), "commands", len(cfg.Commands))
	}
}
