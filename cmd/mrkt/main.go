package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/marketplace"
	"github.com/pders01/mrkt/internal/query"
	"github.com/pders01/mrkt/internal/tui"
	"github.com/pders01/mrkt/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	apiURL     string
	logLevel   string
	logFile    string
	quiet      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mrkt",
	Short: "Marketplace article browser",
	Long: `mrkt browses the articles of a marketplace API from the terminal.

Without a subcommand it starts the interactive browser. The subcommands
print the same data for scripts.

Examples:
  mrkt                                  # interactive browser
  mrkt --api http://10.0.0.5:5000       # against another backend
  mrkt articles --category Tech --json  # one page as JSON
  mrkt config generate                  # write ~/.config/mrkt/config.toml`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = debuglog.Close()
	},
	RunE: runTUI,
}

func init() {
	// Assigned here rather than in the literal: setupLogging refers to
	// rootCmd, which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = setup

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to configuration file")
	pf.StringVar(&apiURL, "api", "", "Marketplace API base URL (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off (overrides config)")
	pf.StringVar(&logFile, "log-file", "", "Path to log file (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Show version information",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noSetup,
	Run: func(*cobra.Command, []string) {
		fmt.Printf("%s %s\n", tui.AppName, Version)
		fmt.Println("Marketplace article browser")
		fmt.Println("github.com/pders01/mrkt")
	},
}

// setup loads the configuration, applies the global flags and starts
// logging. Every command that talks to the API runs it first.
func setup(cmd *cobra.Command, _ []string) error {
	paths := validation.NewFilePathValidator()

	path := configPath
	if path != "" {
		var err error
		if path, err = paths.ValidateFile(path); err != nil {
			return fmt.Errorf("invalid --config: %w", err)
		}
	}
	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		loaded.API.BaseURL = apiURL
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFile != "" {
		if loaded.Log.Path, err = paths.ValidateFile(logFile); err != nil {
			return fmt.Errorf("invalid --log-file: %w", err)
		}
	}
	cfg = loaded

	return setupLogging(cmd, cfg)
}

func noSetup(*cobra.Command, []string) error {
	return nil
}

// setupLogging writes to a file for the TUI, which owns the terminal. The
// other commands log to stderr unless a file was asked for.
func setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if cmd == rootCmd || logFile != "" {
		if err := debuglog.Setup(level, cfg.Log.Path); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	}
	debuglog.SetupWriter(level, cmd.ErrOrStderr())
	return nil
}

func newQueryClient() (*query.Client, error) {
	api, err := marketplace.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return query.NewClient(api, cfg), nil
}

func runTUI(*cobra.Command, []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	queries, err := newQueryClient()
	if err != nil {
		return err
	}
	debuglog.Infof("starting %s %s against %s", tui.AppName, Version, cfg.API.BaseURL)

	tui.ApplyTheme(cfg.UI.Colors)
	app := tui.NewApp(queries, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
