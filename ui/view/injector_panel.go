package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/pixel-assist-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// InjectorPanel edits the injector section of the configuration. Applied
// values are validated, saved and handed to onApplied.
type InjectorPanel interface {
	Build(startRow int) (endRow int)
	SetEditable(enabled bool)
	ApplyChanges()
}

type injectorPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	onApplied func(*config.Config)
	applyBtn  *ButtonWidget
	widgets   map[string]*TextWidget
}

func NewInjectorPanel(cfg *config.Config, cfgPath string, onApplied func(*config.Config), logger *slog.Logger) InjectorPanel {
	return &injectorPanel{cfg: cfg, cfgPath: cfgPath, onApplied: onApplied, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *injectorPanel) Build(startRow int) (row int) {
	ic := v.cfg.Injector
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("inputX", "Input X", strconv.Itoa(ic.InputX))
	makeRow("inputY", "Input Y", strconv.Itoa(ic.InputY))
	makeRow("layout", "Keyboard Layout (KLID)", ic.Layout)
	makeRow("keyDelay", "Key Delay ms", strconv.Itoa(ic.KeyDelayMillis))
	makeRow("settle", "Settle ms", strconv.Itoa(ic.SettleMillis))
	makeRow("retries", "Clipboard Retries", strconv.Itoa(ic.ClipboardRetries))
	makeRow("rejectBusy", "Reject When Busy (true/false)", fmt.Sprintf("%t", ic.RejectWhenBusy))
	makeRow("skipVerify", "Skip Verify (true/false)", fmt.Sprintf("%t", ic.SkipVerify))
	makeRow("skipClick", "Skip Click (true/false)", fmt.Sprintf("%t", ic.SkipClick))
	v.applyBtn = Button(Txt("Apply Injector Settings"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *injectorPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *injectorPanel) text(id string) (string, bool) {
	w := v.widgets[id]
	if w == nil {
		return "", false
	}
	s := strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
	return s, s != ""
}

func (v *injectorPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg
	assignInt := func(id string, dst *int) {
		if s, ok := v.text(id); ok {
			if i, ok := parseIntField(s); ok {
				*dst = i
			}
		}
	}
	assignBool := func(id string, dst *bool) {
		if s, ok := v.text(id); ok {
			if b, ok := parseBoolLoose(s); ok {
				*dst = b
			}
		}
	}
	assignInt("inputX", &cfg.Injector.InputX)
	assignInt("inputY", &cfg.Injector.InputY)
	assignInt("keyDelay", &cfg.Injector.KeyDelayMillis)
	assignInt("settle", &cfg.Injector.SettleMillis)
	assignInt("retries", &cfg.Injector.ClipboardRetries)
	assignBool("rejectBusy", &cfg.Injector.RejectWhenBusy)
	assignBool("skipVerify", &cfg.Injector.SkipVerify)
	assignBool("skipClick", &cfg.Injector.SkipClick)
	if s, ok := v.text("layout"); ok {
		cfg.Injector.Layout = s
	}
	if err := cfg.Validate(); err != nil {
		if v.logger != nil {
			v.logger.Warn("injector settings rejected", "error", err)
		}
		return
	}
	*v.cfg = cfg
	if v.onApplied != nil {
		v.onApplied(v.cfg)
	}
	if v.cfgPath == "" {
		return
	}
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
}

func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
