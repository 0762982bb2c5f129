package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/pkg/pluck/config"
	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "pluck [path]",
		Short: "Pick files interactively and bundle their contents",
		Long: `Pluck browses a directory tree, lets you select files and folders,
and renders the selection as XML, Markdown, JSON, or an LLM-oriented
analysis document to the clipboard, a file, or stdout.

By default, pluck launches an interactive TUI rooted at the given path.
Use --no-interactive with --files to select by glob without the TUI.

Examples:
  pluck                        # Browse the current directory
  pluck ~/src/project          # Browse a specific directory
  pluck -f markdown .          # Start with Markdown output
  pluck -n --files '*.go' .    # Bundle all Go files to the clipboard
  pluck -n --files '*' --stdout . | less
  pluck config show            # Show configuration
  pluck history                # View bundle history`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPick,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Flags are persistent so subcommands inherit the output and
	// ignore controls.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/pluck/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (xml, markdown, json, llm)")
	rootCmd.PersistentFlags().BoolP("line-numbers", "l", false, "prefix content lines with line numbers")
	rootCmd.PersistentFlags().Bool("gitignore", true, "honor .gitignore rules")
	rootCmd.PersistentFlags().Bool("no-gitignore", false, "ignore .gitignore rules")
	rootCmd.PersistentFlags().Bool("default-ignores", true, "skip well-known build and dependency directories")
	rootCmd.PersistentFlags().BoolP("include-binary", "b", false, "emit size/type descriptors for binary files")
	rootCmd.PersistentFlags().StringSliceP("pattern", "p", nil, "extra ignore globs (can be specified multiple times)")
	rootCmd.PersistentFlags().String("files", "", "select entries matching a glob and skip the TUI")
	rootCmd.PersistentFlags().StringP("output", "o", "", "write the bundle to a file instead of the clipboard")
	rootCmd.PersistentFlags().Bool("stdout", false, "write the bundle to stdout instead of the clipboard")
	rootCmd.PersistentFlags().Int("max-selected", 0, "selection cap (0 uses the configured default)")
	rootCmd.PersistentFlags().Bool("tokens", false, "estimate token counts in render summaries")
	rootCmd.PersistentFlags().BoolP("no-interactive", "n", false, "disable the TUI, render a batch selection")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("line_numbers", rootCmd.PersistentFlags().Lookup("line-numbers"))
	_ = viper.BindPFlag("ignore.use_gitignore", rootCmd.PersistentFlags().Lookup("gitignore"))
	_ = viper.BindPFlag("no_gitignore", rootCmd.PersistentFlags().Lookup("no-gitignore"))
	_ = viper.BindPFlag("ignore.use_defaults", rootCmd.PersistentFlags().Lookup("default-ignores"))
	_ = viper.BindPFlag("include_binary", rootCmd.PersistentFlags().Lookup("include-binary"))
	_ = viper.BindPFlag("ignore.patterns", rootCmd.PersistentFlags().Lookup("pattern"))
	_ = viper.BindPFlag("files", rootCmd.PersistentFlags().Lookup("files"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("use_stdout", rootCmd.PersistentFlags().Lookup("stdout"))
	_ = viper.BindPFlag("max_selected", rootCmd.PersistentFlags().Lookup("max-selected"))
	_ = viper.BindPFlag("tokens.enabled", rootCmd.PersistentFlags().Lookup("tokens"))
	_ = viper.BindPFlag("no_interactive", rootCmd.PersistentFlags().Lookup("no-interactive"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig wires viper to the config file, PLUCK_ environment
// variables, and built-in defaults before any command runs.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "pluck"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "pluck"))
		}
	}

	viper.SetEnvPrefix("PLUCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("format", config.DefaultFormat)
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("max_selected", config.DefaultMaxSelected)
	viper.SetDefault("ignore.use_defaults", true)
	viper.SetDefault("ignore.use_gitignore", true)
	viper.SetDefault("ignore.defaults", ignore.DefaultDirs)
	viper.SetDefault("session.enabled", true)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce_ms", config.DefaultWatchDebounceMS)

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

// Execute dispatches the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func verboseOn() bool {
	return viper.GetBool("verbose")
}

func quietOn() bool {
	return viper.GetBool("quiet")
}

// verbosef reports progress detail on stderr when --verbose is set.
func verbosef(format string, args ...interface{}) {
	if verboseOn() && !quietOn() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// infof prints a user-facing line unless --quiet is set.
func infof(format string, args ...interface{}) {
	if quietOn() {
		return
	}
	fmt.Printf(format+"\n", args...)
}
