package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-assist-go/app"
	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/engine"
	"github.com/soocke/pixel-assist-go/domain/geometry"
	"github.com/soocke/pixel-assist-go/domain/hotkey"
	"github.com/soocke/pixel-assist-go/domain/inject"
	"github.com/soocke/pixel-assist-go/storage"
)

var (
	hotkeysListen bool
	sendDelay     time.Duration
	counterRecent int
	counterReset  string
	configForce   bool
)

var hotkeysCmd = &cobra.Command{
	Use:   "hotkeys",
	Short: "List configured hotkeys, optionally printing matches as keys are pressed",
	RunE:  runHotkeys,
}

var sendCmd = &cobra.Command{
	Use:   "send NAME",
	Short: "Inject one command into the focused window after a delay",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Show persisted command counters and recent sends",
	RunE:  runCounter,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the configuration",
	RunE:  runConfigCheck,
}

func init() {
	hotkeysCmd.Flags().BoolVar(&hotkeysListen, "listen", false, "Install the keyboard hook and print matching bindings until interrupted")
	sendCmd.Flags().DurationVar(&sendDelay, "delay", 3*time.Second, "Time to focus the target window before sending")
	counterCmd.Flags().IntVar(&counterRecent, "recent", 10, "Number of recent sends to show")
	counterCmd.Flags().StringVar(&counterReset, "reset", "", "Reset one command counter, or all with \"*\"")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(hotkeysCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(counterCmd)
	rootCmd.AddCommand(configCmd)
}

func runHotkeys(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	out := cmd.OutOrStdout()
	d := hotkey.NewDispatcher(logger)
	for _, b := range engine.BuildBindings(cfg.Hotkeys) {
		if err := d.Register(b, func(action string) { fmt.Fprintf(out, "pressed -> %s\n", action) }); err != nil {
			fmt.Fprintf(out, "invalid  %-20s %s: %v\n", b.Keys, b.Action, err)
		}
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range d.Bindings() {
		fmt.Fprintf(tw, "%s\t%s\n", r.Combo, r.Action)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !hotkeysListen {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go d.Run(ctx)
	fmt.Fprintln(out, "listening; press Ctrl+C to stop")
	if err := hotkey.Listen(ctx, d, logger); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	cc, ok := cfg.Command(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrUnknownCommand, args[0])
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	db, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	norm := geometry.NewNormalizer(geometry.ReferenceFrame{Width: cfg.ReferenceWidth, Height: cfg.ReferenceHeight}, logger)
	sinks := []inject.CounterSink{db, storage.NewFileSignal(dataDir, cfg.CounterFile)}
	in, err := app.NewInjector(cfg.Injector, norm, sinks, db, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.OutOrStdout(), "sending %q in %s\n", cc.Name, sendDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sendDelay):
	}
	res := in.Send(ctx, engine.BuildCommand(cc))
	fmt.Fprintf(cmd.OutOrStdout(), "ok=%t verified=%t text=%q\n", res.OK, res.Verified, res.Text)
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %v\n", w)
	}
	return res.Err
}

func runCounter(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	db, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if counterReset != "" {
		name := counterReset
		if name == "*" {
			name = ""
		}
		if err := db.ResetCounter(ctx, name); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	counters, err := db.Counters(ctx)
	if err != nil {
		return err
	}
	total, err := db.Total(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tCOUNT\tUPDATED")
	for _, c := range counters {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Command, c.Count, c.UpdatedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(tw, "total\t%d\t\n", total)
	if err := tw.Flush(); err != nil {
		return err
	}

	sum, err := db.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsends: %d ok: %d verified: %d avg: %s\n", sum.Total, sum.Succeeded, sum.Verified, sum.AvgDuration.Round(time.Millisecond))
	if counterRecent <= 0 {
		return nil
	}
	recent, err := db.Recent(ctx, counterRecent)
	if err != nil {
		return err
	}
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range recent {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%q\t%dms\t%s\n", r.Timestamp.Local().Format(time.TimeOnly), r.Command, r.Text, r.DurationMs, status)
	}
	return tw.Flush()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d profiles, %d commands, %d hotkeys\n", configPath, len(cfg.Profiles), len(cfg.Commands), len(cfg.Hotkeys))
	for _, b := range engine.BuildBindings(cfg.Hotkeys) {
		if _, err := hotkey.Parse(b.Keys); err != nil {
			fmt.Fprintf(out, "  hotkey %q (%s): %v\n", b.Keys, b.Action, err)
		}
	}
	for _, c := range cfg.Commands {
		if len(c.Responses) == 0 {
			fmt.Fprintf(out, "  command %q has no responses\n", c.Name)
		}
	}
	return nil
}
