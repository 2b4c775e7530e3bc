package main

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/capture"
	"github.com/soocke/pixel-assist-go/domain/detect"
	"github.com/soocke/pixel-assist-go/domain/engine"
	"github.com/soocke/pixel-assist-go/domain/geometry"
	"github.com/soocke/pixel-assist-go/ui/images"
)

var (
	probeExpect   string
	probeTol      int
	probeAbsolute bool
	probePNG      string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Sample the screen the way detection does",
}

var probePixelCmd = &cobra.Command{
	Use:   "pixel X Y",
	Short: "Read one pixel (reference-frame coordinates unless --absolute)",
	Args:  cobra.ExactArgs(2),
	RunE:  runProbePixel,
}

var probeProfileCmd = &cobra.Command{
	Use:   "profile NAME",
	Short: "Evaluate one detection profile once and print every signal",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbeProfile,
}

func init() {
	probePixelCmd.Flags().StringVar(&probeExpect, "expect", "", "Expected color as r,g,b")
	probePixelCmd.Flags().IntVar(&probeTol, "tol", 10, "Per-channel tolerance for --expect")
	probePixelCmd.Flags().BoolVar(&probeAbsolute, "absolute", false, "X and Y are screen coordinates")
	probeProfileCmd.Flags().StringVar(&probePNG, "png", "", "Write an annotated capture of the sampled area to this file")

	probeCmd.AddCommand(probePixelCmd)
	probeCmd.AddCommand(probeProfileCmd)
	rootCmd.AddCommand(probeCmd)
}

func probeEnv(cfg *config.Config) (capture.Backend, *geometry.Normalizer, error) {
	if err := capture.Available(); err != nil {
		return nil, nil, err
	}
	norm := geometry.NewNormalizer(geometry.ReferenceFrame{Width: cfg.ReferenceWidth, Height: cfg.ReferenceHeight}, nil)
	return capture.NewBackend(), norm, nil
}

func runProbePixel(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	x, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid X %q: %w", args[0], err)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid Y %q: %w", args[1], err)
	}
	backend, norm, err := probeEnv(cfg)
	if err != nil {
		return err
	}
	p := image.Pt(x, y)
	if !probeAbsolute {
		p = norm.Normalize(geometry.Point{X: x, Y: y})
	}
	c, err := backend.Pixel(p)
	if err != nil {
		return fmt.Errorf("failed to read pixel at %v: %w", p, err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pixel %v = %d,%d,%d (#%02x%02x%02x)\n", p, c.R, c.G, c.B, c.R, c.G, c.B)
	if probeExpect == "" {
		return nil
	}
	want, err := parseRGB(probeExpect)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "expected %d,%d,%d tol %d: match=%t confidence=%.2f\n",
		want.R, want.G, want.B, probeTol, detect.WithinTolerance(c, want, probeTol), detect.ColorConfidence(c, want, probeTol))
	return nil
}

func runProbeProfile(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	pc, ok := cfg.Profile(args[0])
	if !ok {
		return fmt.Errorf("unknown profile %q", args[0])
	}
	backend, norm, err := probeEnv(cfg)
	if err != nil {
		return err
	}
	profile := engine.BuildProfile(pc)
	sampler := capture.NewBitmapSampler(backend, logger)
	det := detect.NewDetector(norm, sampler, engine.OSCursor(), logger, detect.WithThresholds(engine.BuildThresholds(cfg.Geometry)))
	res := det.Evaluate(profile)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "profile %s rule=%s threshold=%.2f: matched=%t confidence=%.2f\n",
		profile.Name, profile.Rule, profile.Threshold, res.Matched, res.Confidence)
	outlines := make([]images.Outline, 0, len(profile.Signals))
	for i, sr := range res.Signals {
		region := detect.Region(profile.Signals[i], norm)
		fmt.Fprintf(out, "  %-12s %-24v matched=%-5t confidence=%.2f %s\n", sr.Kind, region, sr.Matched, sr.Confidence, sr.Detail)
		outlines = append(outlines, images.Outline{Rect: region, Hit: sr.Matched})
	}
	if probePNG == "" {
		return nil
	}
	return writeProbePNG(backend, outlines, probePNG)
}

const probeMargin = 12

func writeProbePNG(backend capture.Backend, outlines []images.Outline, path string) error {
	screen, err := backend.Bounds()
	if err != nil {
		return err
	}
	var area image.Rectangle
	for _, o := range outlines {
		area = capture.UnionRect(area, o.Rect)
	}
	area = area.Inset(-probeMargin).Intersect(screen)
	if area.Empty() {
		return images.ErrEmptyArea
	}
	frame, err := backend.Capture(area)
	if err != nil {
		return fmt.Errorf("failed to capture %v: %w", area, err)
	}
	defer capture.RecycleFrame(frame)
	local := make([]images.Outline, len(outlines))
	for i, o := range outlines {
		local[i] = images.Outline{Rect: o.Rect.Sub(area.Min), Hit: o.Hit}
	}
	annotated, err := images.Annotate(frame, local, probeMargin)
	if err != nil {
		return err
	}
	data, err := images.EncodePNG(images.ScaleToFit(annotated, 800, 600))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("wrote %s (%dx%d capture at %v)\n", path, area.Dx(), area.Dy(), area.Min)
	return nil
}

// parseRGB parses "r,g,b" with each channel in 0..255.
func parseRGB(s string) (capture.ColorRGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return capture.ColorRGB{}, fmt.Errorf("color %q: want r,g,b", s)
	}
	var ch [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return capture.ColorRGB{}, fmt.Errorf("color %q: channel %d out of range", s, i)
		}
		ch[i] = v
	}
	return capture.ColorRGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}
