package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/catalog"
	"github.com/studiowebux/rustactions/internal/config"
	"github.com/studiowebux/rustactions/internal/input"
	"github.com/studiowebux/rustactions/internal/keyscfg"
	"github.com/studiowebux/rustactions/internal/keyspace"
	"github.com/studiowebux/rustactions/internal/server"
	"github.com/studiowebux/rustactions/internal/store"
	"github.com/studiowebux/rustactions/internal/trigger"
	"github.com/studiowebux/rustactions/internal/version"
)

var appVersion = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rustactions",
	Short: "Rust Actions - key bind automation for the game Rust",
	Long: `Rust Actions manages a block of generated key binds in the game's
keys.cfg and triggers them over a local HTTP API.

The managed section covers crafting binds for every craftable item, a
fixed table of utility commands, and a rotating pool of chat/connection
binds that are created on demand. The file is kept read-only between
writes so the game cannot overwrite it on exit.

Examples:
  rustactions serve                  # Start the HTTP API
  rustactions generate               # Rebuild keys.cfg and exit
  rustactions status                 # Show file and bind state
  rustactions writable               # Clear the read-only protection`,
	Version: appVersion,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Rebuild the managed section of keys.cfg and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the managed binds file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "Set keys.cfg read-only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return togglePermission(true)
	},
}

var writableCmd = &cobra.Command{
	Use:   "writable",
	Short: "Clear the read-only protection on keys.cfg",
	RunE: func(cmd *cobra.Command, args []string) error {
		return togglePermission(false)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print slot allocation and trigger counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

var (
	flagHost    string
	flagPort    int
	flagKeysCfg string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Override listen host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "Override listen port")
	rootCmd.PersistentFlags().StringVar(&flagKeysCfg, "keys-cfg", "", "Override path to keys.cfg")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(writableCmd)
	rootCmd.AddCommand(statsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadSettings() (config.Settings, error) {
	if err := config.Initialize(); err != nil {
		return config.Settings{}, fmt.Errorf("failed to initialize config: %w", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}
	if flagHost != "" {
		settings.Host = flagHost
	}
	if flagPort != 0 {
		settings.Port = flagPort
	}
	if flagKeysCfg != "" {
		settings.KeysCfgPath = flagKeysCfg
	}
	return settings, nil
}

// noInjector is used by commands that never send keystrokes.
type noInjector struct{}

func (noInjector) PressKey(context.Context, string) error {
	return fmt.Errorf("no injector configured")
}
func (noInjector) SendChord(context.Context, keyspace.Chord) error {
	return fmt.Errorf("no injector configured")
}
func (noInjector) TypeText(context.Context, string) error {
	return fmt.Errorf("no injector configured")
}

type app struct {
	ctrl    *trigger.Controller
	catalog *catalog.Catalog
	store   *store.Manager
	log     *slog.Logger
}

func buildApp(settings config.Settings, log *slog.Logger, needInput bool) (*app, error) {
	space, err := keyspace.New(keyspace.DefaultAlphabet, keyspace.DefaultChordSize)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(config.CatalogPath)
	if err != nil {
		return nil, err
	}
	if cat.Len() == 0 {
		log.Warn("item database is empty, no crafting binds will be generated",
			"path", config.CatalogPath)
	}

	db, err := store.NewManager(config.DatabasePath)
	if err != nil {
		return nil, err
	}

	var inj input.Injector = noInjector{}
	var focus input.FocusChecker = input.AlwaysFocused{}
	if needInput {
		if settings.InjectorCommand == "" {
			db.Close()
			return nil, fmt.Errorf("injectorCommand is not set in %s", config.SettingsFile)
		}
		execInj, err := input.NewExecInjector(settings.InjectorCommand)
		if err != nil {
			db.Close()
			return nil, err
		}
		inj = execInj
		if settings.TargetWindowTitle != "" {
			checker, err := input.NewExecFocusChecker(settings.InjectorCommand, settings.TargetWindowTitle)
			if err != nil {
				db.Close()
				return nil, err
			}
			focus = checker
		}
	}

	ctrl, err := trigger.NewController(trigger.Config{
		Space:   space,
		Ranges:  binds.DefaultRanges(),
		Catalog: cat,
		CfgFile: keyscfg.NewManager(settings.KeysCfgPath, log),
		Store:   db,
		Inj:     inj,
		Focus:   focus,
		Console: input.NewConsole(inj, settings.ConsoleKey, settings.ReloadCommand),
		Logger:  log,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{ctrl: ctrl, catalog: cat, store: db, log: log}, nil
}

func runServe() error {
	log := newLogger()
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	a, err := buildApp(settings, log, true)
	if err != nil {
		return err
	}
	defer a.store.Close()

	if err := a.ctrl.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize binds: %w", err)
	}

	go func() {
		available, latest, url, err := version.CheckForUpdate(appVersion)
		if err == nil && available {
			log.Info("a newer version is available", "latest", latest, "url", url)
		}
	}()

	srv := server.NewServer(a.ctrl, a.catalog, appVersion, log)
	if err := srv.Start(settings.Host, settings.Port); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	return srv.Stop()
}

func runGenerate() error {
	log := newLogger()
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	a, err := buildApp(settings, log, false)
	if err != nil {
		return err
	}
	defer a.store.Close()

	if err := a.ctrl.Initialize(); err != nil {
		return fmt.Errorf("failed to generate binds file: %w", err)
	}

	stats, err := a.ctrl.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", settings.KeysCfgPath)
	fmt.Printf("  crafting slots: %d\n", stats.Binds.CraftingSlotsUsed)
	fmt.Printf("  static slots:   %d\n", stats.Binds.StaticSlotsUsed)
	fmt.Printf("  dynamic slots:  %d\n", stats.Binds.DynamicSlotsUsed)
	return nil
}

func runStats() error {
	log := newLogger()
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	a, err := buildApp(settings, log, false)
	if err != nil {
		return err
	}
	defer a.store.Close()

	if err := a.ctrl.Initialize(); err != nil {
		return err
	}
	stats, err := a.ctrl.Stats()
	if err != nil {
		return err
	}

	ranges := binds.DefaultRanges()
	fmt.Printf("catalog items:    %d (%d craftable)\n", stats.CatalogItems, stats.CraftableItems)
	fmt.Printf("crafting slots:   %d used / %d\n", stats.Binds.CraftingSlotsUsed, ranges.Crafting.Capacity())
	fmt.Printf("static slots:     %d used / %d\n", stats.Binds.StaticSlotsUsed, ranges.Static.Capacity())
	fmt.Printf("dynamic slots:    %d used / %d\n", stats.Binds.DynamicSlotsUsed, ranges.Dynamic.Capacity())
	fmt.Printf("total slots:      %d used / %d\n", stats.Binds.UsedSlots, stats.Binds.TotalSlots)
	fmt.Printf("triggers to date: %d\n", stats.TriggerCount)
	return nil
}

func runStatus() error {
	log := newLogger()
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	m := keyscfg.NewManager(settings.KeysCfgPath, log)
	readOnly, err := m.IsReadOnly()
	if err != nil {
		return err
	}
	parsed, err := m.Read()
	if err != nil {
		return err
	}

	fmt.Printf("keys.cfg:    %s\n", settings.KeysCfgPath)
	fmt.Printf("protected:   %v\n", readOnly)
	fmt.Printf("managed:     %v\n", parsed.HasMarkers)
	fmt.Printf("user binds:  %d\n", len(parsed.UserSection))
	fmt.Printf("dynamic:     %d\n", len(parsed.Dynamic))

	db, err := store.NewManager(config.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	count, err := db.CountTriggers()
	if err != nil {
		return err
	}
	fmt.Printf("triggers:    %d\n", count)
	return nil
}

func togglePermission(readOnly bool) error {
	log := newLogger()
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	m := keyscfg.NewManager(settings.KeysCfgPath, log)
	if readOnly {
		if err := m.SetReadOnly(); err != nil {
			return err
		}
		fmt.Printf("%s is now read-only\n", settings.KeysCfgPath)
		return nil
	}
	if err := m.SetWritable(); err != nil {
		return err
	}
	fmt.Printf("%s is now writable\n", settings.KeysCfgPath)
	return nil
}
