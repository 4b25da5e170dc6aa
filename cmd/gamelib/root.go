package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/launch"
	"github.com/pders01/gamelib/internal/tui"
	"github.com/pders01/gamelib/internal/validation"
)

type rootOptions struct {
	configPath string
	dbPath     string
	envFile    string
	quiet      bool

	// launchOpts is passed to every launcher the commands build.
	launchOpts []launch.Option
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "gamelib",
		Short: "Game library dashboard",
		Long: `gamelib syncs your game libraries from Steam and other launchers,
caches catalog details locally and lets you browse, search and launch
games from the terminal or over a small HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = debuglog.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before the config")
	root.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newGenerateConfigCmd(),
		newConfigureCmd(opts),
		newTestCmd(opts),
		newSyncCmd(opts),
		newListCmd(opts),
		newStatsCmd(opts),
		newSearchCmd(opts),
		newNewsCmd(opts),
		newLaunchCmd(opts),
		newInstallCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// loadConfig reads the dotenv file and the config, validates the data
// paths and sets up logging. Paths chosen explicitly by flag or config file
// are not confined to the default data directories.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}

	validator := validation.NewPathValidator()
	if o.dbPath != "" || o.configPath != "" || os.Getenv("GAMELIB_DB") != "" {
		validator = validation.NewPermissivePathValidator()
	}
	db, index, logPath, err := validator.DataPaths(cfg.Database.Path, cfg.Database.SearchIndex, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	cfg.Database.Path, cfg.Database.SearchIndex, cfg.Log.File = db, index, logPath

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	debuglog.Debugf("config loaded, database at %s", cfg.Database.Path)
	return cfg, nil
}

// open loads the config and wires the application.
func (o *rootOptions) open() (*application, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return openApplication(cfg, o.launchOpts...)
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	app, err := opts.open()
	if err != nil {
		return err
	}
	defer app.Close()

	if !opts.quiet {
		tui.ShowBanner(Version)
	}

	deps := tui.Deps{
		Library:  app.manager,
		Searcher: app.searcher,
		Launcher: app.launcher,
		News:     app.news(),
	}
	program := tea.NewProgram(tui.NewApp(app.cfg, deps), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gamelib", "config.toml")
}
