package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/cmd/pluck/tui"
	"github.com/pluck-sh/pluck/pkg/pluck/clipboard"
	"github.com/pluck-sh/pluck/pkg/pluck/config"
	"github.com/pluck-sh/pluck/pkg/pluck/history"
	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/logging"
	"github.com/pluck-sh/pluck/pkg/pluck/output"
	"github.com/pluck-sh/pluck/pkg/pluck/session"
	"github.com/pluck-sh/pluck/pkg/pluck/tokens"
)

// runPick is the main pick command handler.
func runPick(_ *cobra.Command, args []string) error {
	// Determine browse root
	rootPath := "."
	if len(args) > 0 {
		rootPath = args[0]
	} else if defaultPath := viper.GetString("default_path"); defaultPath != "" {
		rootPath = defaultPath
	}

	// Expand ~ in path
	expandedPath, err := config.ExpandPath(rootPath)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Verify path exists and is accessible
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	// Load the typed configuration for the ambient pieces (sessions,
	// history, watch, logging). Per-run settings come from viper so
	// flags and PLUCK_ env overrides win.
	cfg, err := config.Load()
	if err != nil {
		verbosef("Failed to load configuration, using defaults: %v", err)
		cfg = &config.Config{}
	}

	format, err := output.ParseFormat(viper.GetString("format"))
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v",
			viper.GetString("format"), output.Available())
	}

	icfg := buildIgnoreConfig()
	maxSelected := viper.GetInt("max_selected")

	// A --files glob implies batch mode
	noInteractive := viper.GetBool("no_interactive")
	if viper.GetString("files") != "" {
		noInteractive = true
	}

	if err := initLogging(cfg, !noInteractive); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	if noInteractive {
		return runBatch(absPath, cfg, icfg, format, maxSelected)
	}

	return runInteractiveTUI(absPath, cfg, icfg, format, maxSelected)
}

// buildIgnoreConfig assembles the exclusion rules from viper, so flag,
// environment, and config file settings all apply.
func buildIgnoreConfig() ignore.Config {
	useGitignore := viper.GetBool("ignore.use_gitignore")
	if viper.GetBool("no_gitignore") {
		useGitignore = false
	}

	return ignore.Config{
		UseDefaults:   viper.GetBool("ignore.use_defaults"),
		UseGitignore:  useGitignore,
		IncludeBinary: viper.GetBool("include_binary"),
		Patterns:      viper.GetStringSlice("ignore.patterns"),
		DefaultDirs:   viper.GetStringSlice("ignore.defaults"),
	}
}

// initLogging initializes the logging system. In TUI mode console
// output stays off so log lines cannot tear the alternate screen.
func initLogging(cfg *config.Config, tuiMode bool) error {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}

	logCfg := logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
		TUIMode:    tuiMode,
	}
	if verboseOn() {
		logCfg.Level = "debug"
		if !tuiMode {
			logCfg.ConsoleLevel = "debug"
		}
	}

	return logging.Init(logCfg)
}

// runInteractiveTUI assembles the browsing session and runs the TUI.
func runInteractiveTUI(root string, cfg *config.Config, icfg ignore.Config, format output.Format, maxSelected int) error {
	opts := tui.Options{
		Root:        root,
		Ignore:      icfg,
		Format:      format,
		LineNumbers: viper.GetBool("line_numbers"),
		MaxSelected: maxSelected,
		OutputPath:  viper.GetString("output"),
		Copier:      clipboard.NewSystem(),
	}

	if cfg.Session.Enabled {
		store, err := session.Open(cfg.SessionPath())
		if err != nil {
			verbosef("Session store unavailable: %v", err)
		} else {
			opts.Sessions = store
			defer func() { _ = store.Close() }()
		}
	}

	if cfg.History.Enabled {
		log, err := history.New(cfg.HistoryDir())
		if err != nil {
			verbosef("History log unavailable: %v", err)
		} else {
			opts.History = log
		}
	}

	if viper.GetBool("tokens.enabled") {
		opts.Counter = tokens.NewCounter(config.CacheDir())
	}

	if cfg.Watch.Enabled {
		debounce := cfg.Watch.DebounceMS
		if debounce <= 0 {
			debounce = config.DefaultWatchDebounceMS
		}
		opts.WatchDebounce = time.Duration(debounce) * time.Millisecond
	}

	return tui.Run(opts)
}
