package engine

import (
	"fmt"
	"time"

	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/action"
	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/detect"
	"github.com/soocke/pixel-assist-go/domain/geometry"
	"github.com/soocke/pixel-assist-go/domain/hotkey"
	"github.com/soocke/pixel-assist-go/domain/inject"
)

// BuildProfile converts a validated profile config into a detection profile.
func BuildProfile(pc config.ProfileConfig) *detect.Profile {
	p := &detect.Profile{
		Name:        pc.Name,
		Rule:        detect.ParseRule(pc.Rule),
		Threshold:   pc.Threshold,
		Debounce:    pc.Debounce,
		Interval:    time.Duration(pc.IntervalMillis) * time.Millisecond,
		StartActive: pc.StartActive,
		Commands:    append([]string(nil), pc.Commands...),
	}
	for _, sc := range pc.Signals {
		p.Signals = append(p.Signals, BuildSignal(sc))
	}
	return p
}

// BuildSignal converts one signal config. Unknown types were already mapped to
// color points by config validation.
func BuildSignal(sc config.SignalConfig) detect.Signal {
	at := geometry.Point{X: sc.X, Y: sc.Y}
	switch sc.Type {
	case config.SignalColorZone:
		return detect.ColorZone{
			Center:     at,
			Size:       sc.Size,
			Expected:   colorOf(sc.Color),
			Tolerance:  sc.Tolerance,
			Step:       sc.Step,
			MinMatches: sc.MinMatches,
		}
	case config.SignalGeometry:
		return detect.GeometricPattern{
			Center:             at,
			Width:              sc.Width,
			Height:             sc.Height,
			MinHorizontalLines: sc.MinHorizontal,
			MinVerticalLines:   sc.MinVertical,
			MinRectangles:      sc.MinRectangles,
		}
	case config.SignalCursor:
		return detect.CursorShape{
			Center:          at,
			Width:           sc.Width,
			Height:          sc.Height,
			Accepted:        append([]int(nil), sc.Shapes...),
			ArrowBrightness: sc.ArrowBrightness,
		}
	default:
		return detect.ColorPoint{Point: at, Expected: colorOf(sc.Color), Tolerance: sc.Tolerance}
	}
}

func colorOf(c []int) capture.ColorRGB {
	if len(c) != 3 {
		return capture.ColorRGB{}
	}
	return capture.ColorRGB{R: c[0], G: c[1], B: c[2]}
}

// BuildCommand converts a command config.
func BuildCommand(cc config.CommandConfig) inject.Command {
	return inject.Command{
		Name:                cc.Name,
		Responses:           append([]string(nil), cc.Responses...),
		AutoSubmit:          cc.AutoSubmit,
		CountsTowardCounter: cc.CountsTowardCounter,
	}
}

// BuildBindings converts hotkey configs.
func BuildBindings(hks []config.HotkeyConfig) []hotkey.Binding {
	out := make([]hotkey.Binding, 0, len(hks))
	for _, h := range hks {
		out = append(out, hotkey.Binding{Action: h.Action, Keys: h.Keys})
	}
	return out
}

// BuildThresholds converts the geometry heuristics config.
func BuildThresholds(g config.GeometryConfig) detect.Thresholds {
	return detect.Thresholds{
		LowCut:           g.LowCut,
		HighCut:          g.HighCut,
		HorizontalRatio:  g.HorizontalRatio,
		VerticalRatio:    g.VerticalRatio,
		EdgeMargin:       g.EdgeMargin,
		CornerContrast:   g.CornerContrast,
		CornersPerRect:   g.CornersPerRect,
		GridStep:         g.GridStep,
		GridMargin:       g.GridMargin,
		ProbeLength:      g.ProbeLength,
		BoundaryContrast: g.BoundaryContrast,
		MinBoundaries:    g.MinBoundaries,
		MaxBoundedAreas:  g.MaxBoundedAreas,
	}
}

// BuildInjectorConfig converts the injector config.
func BuildInjectorConfig(ic config.InjectorConfig) (inject.Config, error) {
	layout, err := action.ParseLayout(ic.Layout)
	if err != nil {
		return inject.Config{}, fmt.Errorf("injector layout: %w", err)
	}
	return inject.Config{
		InputPoint:     geometry.Point{X: ic.InputX, Y: ic.InputY},
		Layout:         layout,
		Settle:         time.Duration(ic.SettleMillis) * time.Millisecond,
		RejectWhenBusy: ic.RejectWhenBusy,
		SkipVerify:     ic.SkipVerify,
		SkipClick:      ic.SkipClick,
	}, nil
}

// BuildActionOptions converts the keyboard/clipboard timing config.
func BuildActionOptions(ic config.InjectorConfig) action.Options {
	return action.Options{
		KeyDelay:       time.Duration(ic.KeyDelayMillis) * time.Millisecond,
		ClipboardTries: ic.ClipboardRetries,
		ClipboardPause: time.Duration(ic.ClipboardRetryMillis) * time.Millisecond,
	}
}

// OSCursor reads the system pointer through the action package.
func OSCursor() detect.CursorReader {
	return detect.CursorFunc(func() (detect.CursorInfo, error) {
		c, err := action.ReadCursor()
		if err != nil {
			return detect.CursorInfo{}, err
		}
		return detect.CursorInfo{Visible: c.Visible, ShapeID: c.ShapeID, Pos: c.Pos}, nil
	})
}
