package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/pkg/pluck/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Inspect and edit the pluck configuration file.

The file lives at $XDG_CONFIG_HOME/pluck/config.yaml, falling back to
~/.config/pluck/config.yaml. Any key can also be set through the
environment with a PLUCK_ prefix, for example PLUCK_FORMAT=markdown or
PLUCK_IGNORE_USE_GITIGNORE=false.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Print every setting after merging file, environment, and defaults.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file",
	Long: `Open the configuration file in $VISUAL, $EDITOR, or vi.

A default file is written first if none exists yet.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if file := viper.ConfigFileUsed(); file != "" {
		fmt.Printf("Config file: %s\n\n", file)
	} else {
		fmt.Print("Config file: (none found, using defaults)\n\n")
	}

	rows := [][2]string{
		{"format", cfg.Format},
		{"line_numbers", fmt.Sprint(cfg.LineNumbers)},
		{"include_binary", fmt.Sprint(cfg.IncludeBinary)},
		{"max_selected", fmt.Sprint(cfg.MaxSelected)},
		{"default_path", cfg.DefaultPath},
		{"ignore.use_defaults", fmt.Sprint(cfg.Ignore.UseDefaults)},
		{"ignore.use_gitignore", fmt.Sprint(cfg.Ignore.UseGitignore)},
		{"ignore.defaults", fmt.Sprint(cfg.Ignore.Defaults)},
		{"ignore.patterns", fmt.Sprint(cfg.Ignore.Patterns)},
		{"session.enabled", fmt.Sprint(cfg.Session.Enabled)},
		{"session.path", cfg.SessionPath()},
		{"history.enabled", fmt.Sprint(cfg.History.Enabled)},
		{"history.path", cfg.HistoryDir()},
		{"history.retention_days", fmt.Sprint(cfg.History.RetentionDays)},
		{"watch.enabled", fmt.Sprint(cfg.Watch.Enabled)},
		{"watch.debounce_ms", fmt.Sprint(cfg.Watch.DebounceMS)},
		{"tokens.enabled", fmt.Sprint(cfg.Tokens.Enabled)},
		{"logging.level", cfg.Logging.Level},
	}
	for _, row := range rows {
		fmt.Printf("%-24s %s\n", row[0]+":", row[1])
	}

	overrides := pluckEnvOverrides()
	if len(overrides) > 0 {
		fmt.Println("\nEnvironment overrides:")
		for _, kv := range overrides {
			fmt.Println("  " + kv)
		}
	}
	return nil
}

// pluckEnvOverrides returns the PLUCK_-prefixed variables currently
// set, sorted by name.
func pluckEnvOverrides() []string {
	var out []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "PLUCK_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	editor := "vi"
	for _, v := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(v); e != "" {
			editor = e
			break
		}
	}
	verbosef("Opening %s with %s", path, editor)

	ed := exec.Command(editor, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		infof("Config file already exists: %s", path)
		infof("Use 'pluck config edit' to modify it.")
		return nil
	}
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	infof("Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	fmt.Println(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		verbosef("File does not exist yet; defaults apply")
	}
	return nil
}
