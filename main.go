package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-assist-go/app"
	"github.com/soocke/pixel-assist-go/config"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

const defaultConfigPath = "pixel-assist.toml"

var (
	configPath string
	verbose    bool
	logFile    string
	noUI       bool
	noTray     bool
	automation string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pixel-assist",
	Short: "Screen-state driven overlays and text injection",
	Long: `pixel-assist watches configured screen regions of a target application,
shows command overlays when the UI they belong to is on screen, and pastes
command text into the application on click or hotkey.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start detection, overlays, hotkeys and the control window",
	RunE:  runRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pixel-assist %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Configuration file (.toml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")

	runCmd.Flags().BoolVar(&noUI, "no-ui", false, "Run without the control window; overlays only log")
	runCmd.Flags().BoolVar(&noTray, "no-tray", false, "Do not show the tray icon")
	runCmd.Flags().StringVar(&automation, "automation", "", "Override automation at start (on|off)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and the logger shared by every command.
func setup() (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	w, closeLog, err := openLogOutput(logFile)
	if err != nil {
		return nil, nil, nil, err
	}
	level := slog.LevelInfo
	if verbose || cfg.Debug {
		level = slog.LevelDebug
	}
	return cfg, NewLogger(level, w), closeLog, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	switch automation {
	case "":
	case "on", "true", "1":
		cfg.AutomationEnabled = true
	case "off", "false", "0":
		cfg.AutomationEnabled = false
	default:
		return fmt.Errorf("invalid --automation %q (want on or off)", automation)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.BuildContainer(cfg, configPath, logger, app.Options{Headless: noUI, Tray: !noTray})
	if err != nil {
		return err
	}
	logger.Info("pixel-assist starting", "version", Version, "config", configPath, "profiles", len(cfg.Profiles))
	if noUI {
		app.RunHeadless(ctx, c)
		return nil
	}
	app.NewApp("Pixel Assist", 760, 560, c).Start(ctx)
	return nil
}
