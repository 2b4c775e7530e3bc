package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds runtime configuration for detection, overlays, text injection and hotkeys.
// Fields may be loaded from a JSON or TOML file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug" toml:"debug"`

	// Resolution the coordinates below were authored against.
	ReferenceWidth  int `json:"reference_width" toml:"reference_width"`
	ReferenceHeight int `json:"reference_height" toml:"reference_height"`

	// Executable name of the target application. Empty disables the gate.
	TargetProcess    string `json:"target_process" toml:"target_process"`
	TargetPollMillis int    `json:"target_poll_ms" toml:"target_poll_ms"`

	AutomationEnabled bool   `json:"automation_enabled" toml:"automation_enabled"`
	DataDir           string `json:"data_dir" toml:"data_dir"`
	CounterFile       string `json:"counter_file" toml:"counter_file"`

	Injector InjectorConfig  `json:"injector" toml:"injector"`
	Geometry GeometryConfig  `json:"geometry" toml:"geometry"`
	Profiles []ProfileConfig `json:"profiles" toml:"profiles"`
	Commands []CommandConfig `json:"commands" toml:"commands"`
	Hotkeys  []HotkeyConfig  `json:"hotkeys" toml:"hotkeys"`
}

// InjectorConfig tunes the clipboard paste transaction.
type InjectorConfig struct {
	InputX               int    `json:"input_x" toml:"input_x"`
	InputY               int    `json:"input_y" toml:"input_y"`
	Layout               string `json:"layout" toml:"layout"`
	KeyDelayMillis       int    `json:"key_delay_ms" toml:"key_delay_ms"`
	SettleMillis         int    `json:"settle_ms" toml:"settle_ms"`
	ClipboardRetries     int    `json:"clipboard_retries" toml:"clipboard_retries"`
	ClipboardRetryMillis int    `json:"clipboard_retry_ms" toml:"clipboard_retry_ms"`
	RejectWhenBusy       bool   `json:"reject_when_busy" toml:"reject_when_busy"`
	SkipVerify           bool   `json:"skip_verify" toml:"skip_verify"`
	SkipClick            bool   `json:"skip_click" toml:"skip_click"`
}

// GeometryConfig holds the thresholds of the line/rectangle heuristics.
type GeometryConfig struct {
	LowCut           int     `json:"low_cut" toml:"low_cut"`
	HighCut          int     `json:"high_cut" toml:"high_cut"`
	HorizontalRatio  float64 `json:"horizontal_ratio" toml:"horizontal_ratio"`
	VerticalRatio    float64 `json:"vertical_ratio" toml:"vertical_ratio"`
	EdgeMargin       int     `json:"edge_margin" toml:"edge_margin"`
	CornerContrast   int     `json:"corner_contrast" toml:"corner_contrast"`
	CornersPerRect   int     `json:"corners_per_rect" toml:"corners_per_rect"`
	GridStep         int     `json:"grid_step" toml:"grid_step"`
	GridMargin       int     `json:"grid_margin" toml:"grid_margin"`
	ProbeLength      int     `json:"probe_length" toml:"probe_length"`
	BoundaryContrast int     `json:"boundary_contrast" toml:"boundary_contrast"`
	MinBoundaries    int     `json:"min_boundaries" toml:"min_boundaries"`
	MaxBoundedAreas  int     `json:"max_bounded_areas" toml:"max_bounded_areas"`
}

// ProfileConfig describes one detection profile and the overlay it drives.
type ProfileConfig struct {
	Name           string         `json:"name" toml:"name"`
	Rule           string         `json:"rule" toml:"rule"` // any | all | weighted
	Threshold      float64        `json:"threshold" toml:"threshold"`
	Debounce       int            `json:"debounce" toml:"debounce"` // consecutive polls
	IntervalMillis int            `json:"interval_ms" toml:"interval_ms"`
	StartActive    bool           `json:"start_active" toml:"start_active"`
	Window         WindowConfig   `json:"window" toml:"window"`
	Commands       []string       `json:"commands" toml:"commands"`
	Signals        []SignalConfig `json:"signals" toml:"signals"`
}

// WindowConfig anchors an overlay in reference-frame units.
type WindowConfig struct {
	Title   string `json:"title" toml:"title"`
	X       int    `json:"x" toml:"x"`
	Y       int    `json:"y" toml:"y"`
	Columns int    `json:"columns" toml:"columns"`
}

// SignalConfig is one detection signal. Type selects which fields apply.
type SignalConfig struct {
	Type            string `json:"type" toml:"type"` // color_point | color_zone | geometry | cursor
	X               int    `json:"x" toml:"x"`
	Y               int    `json:"y" toml:"y"`
	Color           []int  `json:"color,omitempty" toml:"color,omitempty"`
	Tolerance       int    `json:"tolerance" toml:"tolerance"`
	Size            int    `json:"size,omitempty" toml:"size,omitempty"`
	Step            int    `json:"step,omitempty" toml:"step,omitempty"`
	MinMatches      int    `json:"min_matches,omitempty" toml:"min_matches,omitempty"`
	Width           int    `json:"width,omitempty" toml:"width,omitempty"`
	Height          int    `json:"height,omitempty" toml:"height,omitempty"`
	MinHorizontal   int    `json:"min_horizontal,omitempty" toml:"min_horizontal,omitempty"`
	MinVertical     int    `json:"min_vertical,omitempty" toml:"min_vertical,omitempty"`
	MinRectangles   int    `json:"min_rectangles,omitempty" toml:"min_rectangles,omitempty"`
	Shapes          []int  `json:"shapes,omitempty" toml:"shapes,omitempty"`
	ArrowBrightness int    `json:"arrow_brightness,omitempty" toml:"arrow_brightness,omitempty"`
}

// CommandConfig is a named set of response variants.
type CommandConfig struct {
	Name                string   `json:"name" toml:"name"`
	Responses           []string `json:"responses" toml:"responses"`
	AutoSubmit          bool     `json:"auto_submit" toml:"auto_submit"`
	CountsTowardCounter bool     `json:"counts_toward_counter" toml:"counts_toward_counter"`
}

// HotkeyConfig binds a key combination string to an action id.
type HotkeyConfig struct {
	Action string `json:"action" toml:"action"`
	Keys   string `json:"keys" toml:"keys"`
}

// Signal type names.
const (
	SignalColorPoint = "color_point"
	SignalColorZone  = "color_zone"
	SignalGeometry   = "geometry"
	SignalCursor     = "cursor"
)

// DefaultShapes are the cursor ids treated as "pointer over an input field".
var DefaultShapes = []int{32512, 32513, 32514, 32515, 32650}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:             false,
		ReferenceWidth:    1920,
		ReferenceHeight:   1080,
		TargetProcess:     "",
		TargetPollMillis:  500,
		AutomationEnabled: true,
		DataDir:           "",
		CounterFile:       "report_counter.tmp",
		Injector:          defaultInjector(),
		Geometry:          defaultGeometry(),
		Profiles: []ProfileConfig{
			{
				Name:           "chat",
				Rule:           "any",
				Threshold:      50,
				Debounce:       2,
				IntervalMillis: 150,
				StartActive:    true,
				Window:         WindowConfig{Title: "Chat commands", X: 20, Y: 640, Columns: 4},
				Commands:       []string{"/report", "/admins", "/help", "/rules"},
				Signals: []SignalConfig{
					{Type: SignalColorZone, X: 100, Y: 100, Color: []int{68, 80, 95}, Tolerance: 15, Size: 15, Step: 3, MinMatches: 3},
					{Type: SignalGeometry, X: 100, Y: 100, Width: 900, Height: 300, MinHorizontal: 2, MinVertical: 2, MinRectangles: 1},
					{Type: SignalCursor, X: 100, Y: 100, Width: 400, Height: 200, Shapes: append([]int(nil), DefaultShapes...), ArrowBrightness: 150},
				},
			},
			{
				Name:           "commands",
				Rule:           "all",
				Threshold:      50,
				Debounce:       2,
				IntervalMillis: 100,
				StartActive:    true,
				Window:         WindowConfig{Title: "Quick replies", X: 22, Y: 330, Columns: 2},
				Commands:       []string{"Flying", "Check forum", "No minimap"},
				Signals: []SignalConfig{
					{Type: SignalColorPoint, X: 270, Y: 320, Color: []int{68, 68, 68}, Tolerance: 10},
					{Type: SignalColorPoint, X: 300, Y: 320, Color: []int{68, 68, 68}, Tolerance: 10},
				},
			},
		},
		Commands: []CommandConfig{
			{Name: "/report", Responses: []string{"/report"}, AutoSubmit: true},
			{Name: "/admins", Responses: []string{"/admins"}, AutoSubmit: true},
			{Name: "/help", Responses: []string{"/help"}, AutoSubmit: true},
			{Name: "/rules", Responses: []string{"/rules"}, AutoSubmit: true},
			{Name: "Flying", Responses: []string{"On my way", "Flying to you now", "Coming, hold on"}, CountsTowardCounter: true},
			{Name: "Check forum", Responses: []string{"Please post this on the forum"}, CountsTowardCounter: true},
			{Name: "No minimap", Responses: []string{"Press F7 twice to bring the minimap back"}, AutoSubmit: true, CountsTowardCounter: true},
		},
		Hotkeys: []HotkeyConfig{
			{Action: "toggle:chat", Keys: "F1"},
			{Action: "toggle:commands", Keys: "F2"},
			{Action: "send:/report", Keys: "F3"},
			{Action: "activate:chat", Keys: "t"},
			{Action: "activate:chat", Keys: "e"},
			{Action: "deactivate:chat", Keys: "escape"},
			{Action: "deactivate:chat", Keys: "enter"},
			{Action: "toggle_automation", Keys: "ctrl+shift+f12"},
		},
	}
}

func defaultInjector() InjectorConfig {
	return InjectorConfig{
		InputX:               1405,
		InputY:               1033,
		Layout:               "00000409",
		KeyDelayMillis:       10,
		SettleMillis:         100,
		ClipboardRetries:     10,
		ClipboardRetryMillis: 10,
	}
}

func defaultGeometry() GeometryConfig {
	return GeometryConfig{
		LowCut:           50,
		HighCut:          200,
		HorizontalRatio:  0.4,
		VerticalRatio:    0.3,
		EdgeMargin:       5,
		CornerContrast:   50,
		CornersPerRect:   4,
		GridStep:         20,
		GridMargin:       10,
		ProbeLength:      30,
		BoundaryContrast: 80,
		MinBoundaries:    3,
		MaxBoundedAreas:  2,
	}
}

// Validate clamps/normalizes values to safe ranges. It only returns an error
// for problems that cannot be clamped, such as duplicate profile names.
func (c *Config) Validate() error {
	if c.ReferenceWidth <= 0 {
		c.ReferenceWidth = 1920
	}
	if c.ReferenceHeight <= 0 {
		c.ReferenceHeight = 1080
	}
	if c.TargetPollMillis < 50 {
		c.TargetPollMillis = 500
	}
	if strings.TrimSpace(c.CounterFile) == "" {
		c.CounterFile = "report_counter.tmp"
	}
	c.Injector.validate()
	c.Geometry.validate()

	seen := make(map[string]bool, len(c.Profiles))
	for i := range c.Profiles {
		p := &c.Profiles[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = fmt.Sprintf("profile%d", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true
		p.validate()
	}
	cmdSeen := make(map[string]bool, len(c.Commands))
	for _, cmd := range c.Commands {
		if cmdSeen[cmd.Name] {
			return fmt.Errorf("config: duplicate command name %q", cmd.Name)
		}
		cmdSeen[cmd.Name] = true
	}
	return nil
}

func (ic *InjectorConfig) validate() {
	def := defaultInjector()
	if ic.InputX < 0 || ic.InputY < 0 {
		ic.InputX, ic.InputY = def.InputX, def.InputY
	}
	if strings.TrimSpace(ic.Layout) == "" {
		ic.Layout = def.Layout
	}
	// synthetic key pauses stay below 20ms
	if ic.KeyDelayMillis <= 0 || ic.KeyDelayMillis >= 20 {
		ic.KeyDelayMillis = def.KeyDelayMillis
	}
	if ic.SettleMillis <= 0 || ic.SettleMillis > 1000 {
		ic.SettleMillis = def.SettleMillis
	}
	if ic.ClipboardRetries <= 0 {
		ic.ClipboardRetries = def.ClipboardRetries
	}
	if ic.ClipboardRetryMillis <= 0 {
		ic.ClipboardRetryMillis = def.ClipboardRetryMillis
	}
}

func (g *GeometryConfig) validate() {
	def := defaultGeometry()
	if g.LowCut <= 0 || g.LowCut > 255 {
		g.LowCut = def.LowCut
	}
	if g.HighCut <= 0 || g.HighCut > 255 || g.HighCut <= g.LowCut {
		g.HighCut = def.HighCut
	}
	if g.HorizontalRatio <= 0 || g.HorizontalRatio > 1 {
		g.HorizontalRatio = def.HorizontalRatio
	}
	if g.VerticalRatio <= 0 || g.VerticalRatio > 1 {
		g.VerticalRatio = def.VerticalRatio
	}
	if g.EdgeMargin < 0 {
		g.EdgeMargin = def.EdgeMargin
	}
	if g.CornerContrast <= 0 {
		g.CornerContrast = def.CornerContrast
	}
	if g.CornersPerRect <= 0 {
		g.CornersPerRect = def.CornersPerRect
	}
	if g.GridStep <= 0 {
		g.GridStep = def.GridStep
	}
	if g.GridMargin < 0 {
		g.GridMargin = def.GridMargin
	}
	if g.ProbeLength <= 0 {
		g.ProbeLength = def.ProbeLength
	}
	if g.BoundaryContrast <= 0 {
		g.BoundaryContrast = def.BoundaryContrast
	}
	if g.MinBoundaries <= 0 || g.MinBoundaries > 4 {
		g.MinBoundaries = def.MinBoundaries
	}
	if g.MaxBoundedAreas <= 0 {
		g.MaxBoundedAreas = def.MaxBoundedAreas
	}
}

func (p *ProfileConfig) validate() {
	switch strings.ToLower(strings.TrimSpace(p.Rule)) {
	case "any", "all", "weighted":
		p.Rule = strings.ToLower(strings.TrimSpace(p.Rule))
	default:
		p.Rule = "any"
	}
	if p.Threshold <= 0 || p.Threshold > 100 {
		p.Threshold = 50
	}
	if p.Debounce <= 0 {
		p.Debounce = 1
	}
	if p.IntervalMillis < 50 {
		p.IntervalMillis = 150
	}
	if p.IntervalMillis > 5000 {
		p.IntervalMillis = 1500
	}
	if p.Window.Columns <= 0 {
		p.Window.Columns = 2
	}
	if strings.TrimSpace(p.Window.Title) == "" {
		p.Window.Title = p.Name
	}
	for i := range p.Signals {
		p.Signals[i].validate()
	}
}

func (s *SignalConfig) validate() {
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if len(s.Color) != 3 {
		s.Color = []int{0, 0, 0}
	}
	for i, v := range s.Color {
		s.Color[i] = clampByte(v)
	}
	if s.Tolerance < 0 {
		s.Tolerance = 0
	}
	if s.Tolerance > 255 {
		s.Tolerance = 255
	}
	switch s.Type {
	case SignalColorZone:
		if s.Size <= 0 {
			s.Size = 15
		}
		if s.Step <= 0 {
			s.Step = 3
		}
		if s.MinMatches <= 0 {
			s.MinMatches = 3
		}
	case SignalGeometry:
		if s.Width <= 0 || s.Height <= 0 {
			s.Width, s.Height = 900, 300
		}
		if s.MinHorizontal <= 0 && s.MinVertical <= 0 && s.MinRectangles <= 0 {
			s.MinHorizontal, s.MinVertical, s.MinRectangles = 2, 2, 1
		}
	case SignalCursor:
		if s.Width <= 0 || s.Height <= 0 {
			s.Width, s.Height = 400, 200
		}
		if len(s.Shapes) == 0 {
			s.Shapes = append([]int(nil), DefaultShapes...)
		}
		if s.ArrowBrightness <= 0 || s.ArrowBrightness > 255 {
			s.ArrowBrightness = 150
		}
	case SignalColorPoint:
	default:
		s.Type = SignalColorPoint
	}
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Profile returns the profile with the given name.
func (c *Config) Profile(name string) (ProfileConfig, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return ProfileConfig{}, false
}

// Command returns the command with the given name.
func (c *Config) Command(name string) (CommandConfig, bool) {
	for _, cmd := range c.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return CommandConfig{}, false
}

// ResolveDataDir returns DataDir or a per-user default, creating it if needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: user config dir: %w", err)
		}
		dir = filepath.Join(base, "pixel-assist")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create data dir: %w", err)
	}
	return dir, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load attempts to read configuration from the given path. Files ending in .toml are
// decoded as TOML, anything else as JSON. If the file does not exist it returns
// DefaultConfig(). On decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	// Lists from the file replace the defaults instead of merging into them.
	loaded := &Config{}
	*loaded = *cfg
	loaded.Profiles, loaded.Commands, loaded.Hotkeys = nil, nil, nil
	if isTOML(path) {
		if _, err := toml.DecodeFile(path, loaded); err != nil {
			return cfg, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(loaded); err != nil {
			return cfg, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := loaded.Validate(); err != nil {
		return cfg, err
	}
	return loaded, nil
}

// Save writes the configuration to the given path, TOML or JSON by extension.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if isTOML(path) {
		return toml.NewEncoder(f).Encode(c)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
