package view

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/visibility"
	"github.com/soocke/pixel-assist-go/ui/model"
	"github.com/soocke/pixel-assist-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootCallbacks are invoked on the Tk thread from control window widgets.
type RootCallbacks struct {
	ToggleAutomation func()
	ToggleOverlay    func(name string)
	ToggleDark       func()
	Exit             func()
	InjectorApplied  func(*config.Config)
}

// RootView composes the control window and implements the presenter views.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Session  SessionStats
	Injector InjectorPanel

	// Widgets
	AutomationLabel *TLabelWidget
	TargetLabel     *LabelWidget
	HotkeyLabel     *LabelWidget
	overlayLabels   map[string]*TLabelWidget
}

// UI is the union of the presenter view contracts.
type UI interface {
	SetOverlayStatus(rows []model.OverlayStatus)
	SetAutomation(on bool)
	SetTarget(text string)
	SetSession(run, total time.Duration)
	SetSends(sent, failed int, counter int64, last string)
	SetHotkey(text string)
}

var _ UI = (*RootView)(nil)

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, overlayLabels: make(map[string]*TLabelWidget)}
}

// Build constructs the layout. overlays lists overlay names in display order.
func (rv *RootView) Build(overlays []string, cb RootCallbacks) {
	if rv == nil {
		return
	}
	// Row 0: automation and target state, buttons frame
	rv.AutomationLabel = TLabel(Txt("Automation: off"), Style(theme.StyleOffLabel))
	Grid(rv.AutomationLabel, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.TargetLabel = Label(Txt("Target: -"), Borderwidth(1), Relief("ridge"), Anchor("w"))
	Grid(rv.TargetLabel, Row(0), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(3), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	autoBtn := TButton(Txt("Toggle Automation"), Style(theme.StylePrimaryButton), Command(cb.ToggleAutomation))
	Grid(autoBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	if cb.ToggleDark != nil {
		darkBtn := Button(Txt("Dark Mode"), Command(cb.ToggleDark))
		Grid(darkBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	}
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(cb.Exit))
	Grid(exitBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Row 1: session stats
	statsFrame := Frame()
	Grid(statsFrame, Row(1), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"))
	rv.Session = NewSessionStats(statsFrame, 0, 0)

	// Row 2: last hotkey
	rv.HotkeyLabel = Label(Txt("Hotkey: -"), Anchor("w"))
	Grid(rv.HotkeyLabel, Row(2), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.15m"))

	// Overlay rows
	row := 3
	for _, name := range overlays {
		name := name
		nameLbl := Label(Txt(name), Anchor("w"))
		Grid(nameLbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		stateLbl := TLabel(Txt("hidden"), Style(theme.StyleOffLabel), Width(30))
		Grid(stateLbl, Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		rv.overlayLabels[name] = stateLbl
		if cb.ToggleOverlay != nil {
			btn := Button(Txt("Toggle"), Command(func() { cb.ToggleOverlay(name) }))
			Grid(btn, Row(row), Column(3), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		}
		row++
	}

	rv.Injector = NewInjectorPanel(rv.cfg, rv.cfgPath, cb.InjectorApplied, rv.logger)
	rv.Injector.Build(row)
}

func (rv *RootView) SetOverlayStatus(rows []model.OverlayStatus) {
	if rv == nil {
		return
	}
	for _, s := range rows {
		lbl := rv.overlayLabels[s.Name]
		if lbl == nil {
			continue
		}
		style := theme.StyleOffLabel
		if s.State == visibility.StateVisible {
			style = theme.StyleOnLabel
		}
		lbl.Configure(Txt(overlayText(s)), Style(style))
	}
}

func overlayText(s model.OverlayStatus) string {
	text := s.State.String()
	if s.Pinned {
		text += " (pinned)"
	}
	if !s.Polling {
		return text + "  paused"
	}
	return fmt.Sprintf("%s  %.2f  #%d", text, s.Confidence, s.Polls)
}

func (rv *RootView) SetAutomation(on bool) {
	if rv == nil || rv.AutomationLabel == nil {
		return
	}
	if on {
		rv.AutomationLabel.Configure(Txt("Automation: on"), Style(theme.StyleOnLabel))
		return
	}
	rv.AutomationLabel.Configure(Txt("Automation: off"), Style(theme.StyleOffLabel))
}

func (rv *RootView) SetTarget(text string) {
	if rv != nil && rv.TargetLabel != nil {
		rv.TargetLabel.Configure(Txt(text))
	}
}

// SetSession updates both the current run and the accumulated run time.
func (rv *RootView) SetSession(run, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(run)
	rv.Session.SetTotal(total)
}

func (rv *RootView) SetSends(sent, failed int, counter int64, last string) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSends(sent, failed, counter, last)
	}
}

func (rv *RootView) SetHotkey(text string) {
	if rv != nil && rv.HotkeyLabel != nil {
		rv.HotkeyLabel.Configure(Txt(text))
	}
}
