package theme

// Palette and ttk styles for the control window and the overlay panels.
// InitStyles must run on the Tk thread after the root window exists.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Light palette. Overlays always use the dark surface so they read over a game.
const (
	ColorBg        = "#f7f9fb"
	ColorSurface   = "#ffffff"
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb"
	ColorDanger    = "#dc2626"
	ColorAccent    = "#10b981"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"

	ColorOverlayBg     = "#1b2430"
	ColorOverlayButton = "#2d3a4a"
	ColorOverlayText   = "#e2e8f0"
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Border    string
	Primary   string
	Danger    string
	Accent    string
	Text      string
	TextMuted string
}

// CurrentPalette returns colors for the current mode.
func CurrentPalette() PaletteSnapshot {
	if darkMode {
		return PaletteSnapshot{
			AppBg:     "#0f172a",
			Surface:   "#1e293b",
			Border:    "#334155",
			Primary:   "#3b82f6",
			Danger:    "#ef4444",
			Accent:    "#10b981",
			Text:      "#f1f5f9",
			TextMuted: "#94a3b8",
		}
	}
	return PaletteSnapshot{
		AppBg:     ColorBg,
		Surface:   ColorSurface,
		Border:    ColorBorder,
		Primary:   ColorPrimary,
		Danger:    ColorDanger,
		Accent:    ColorAccent,
		Text:      ColorText,
		TextMuted: ColorTextMuted,
	}
}

// Style names used with Style("...") on ttk widgets.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleCommandButton = "command.TButton"
	StyleOnLabel       = "on.TLabel"
	StyleOffLabel      = "off.TLabel"
)

var darkMode bool

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(darkMode) }

// ToggleDark flips dark mode and reapplies styles. Returns the new mode.
func ToggleDark() bool {
	darkMode = !darkMode
	applyStyles(darkMode)
	return darkMode
}

// IsDark reports current mode.
func IsDark() bool { return darkMode }

func applyStyles(dark bool) {
	pal := CurrentPalette()
	_ = ActivateTheme("azure light")
	if dark {
		_ = ActivateTheme("azure dark")
	}
	App.Configure(Background(pal.AppBg))

	StyleConfigure(StylePrimaryButton, Background(pal.Primary), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleDangerButton, Background(pal.Danger), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleCommandButton, Background(ColorOverlayButton), Foreground(ColorOverlayText), Padding("3p 2p"), Borderwidth(0))
	StyleConfigure(StyleOnLabel, Foreground("white"), Background(pal.Accent), Padding("4p 2p"), Relief("groove"))
	StyleConfigure(StyleOffLabel, Foreground("white"), Background(pal.TextMuted), Padding("4p 2p"), Relief("groove"))
}
