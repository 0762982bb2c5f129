package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
)

// LoggingConfig selects log levels and the log file.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// IgnoreConfig configures which entries stay out of the tree.
type IgnoreConfig struct {
	UseDefaults  bool     `mapstructure:"use_defaults"`
	UseGitignore bool     `mapstructure:"use_gitignore"`
	Defaults     []string `mapstructure:"defaults"`
	Patterns     []string `mapstructure:"patterns"`
}

// SessionConfig configures per-root session persistence.
type SessionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Store path (default under XDG state dir if empty)
}

// HistoryConfig configures the bundle history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"` // Record directory (default under XDG state dir if empty)
	RetentionDays int    `mapstructure:"retention_days"`
}

// WatchConfig configures live tree refresh.
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"`
}

// TokensConfig configures the optional token estimate.
type TokensConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the merged application configuration.
type Config struct {
	Format        string        `mapstructure:"format"`
	LineNumbers   bool          `mapstructure:"line_numbers"`
	IncludeBinary bool          `mapstructure:"include_binary"`
	MaxSelected   int           `mapstructure:"max_selected"`
	DefaultPath   string        `mapstructure:"default_path"`
	Ignore        IgnoreConfig  `mapstructure:"ignore"`
	Session       SessionConfig `mapstructure:"session"`
	History       HistoryConfig `mapstructure:"history"`
	Watch         WatchConfig   `mapstructure:"watch"`
	Tokens        TokensConfig  `mapstructure:"tokens"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// Load merges the config file, PLUCK_-prefixed environment
// variables, and built-in defaults. The file is searched for at
// $XDG_CONFIG_HOME/pluck/config.yaml, then $HOME/.config/pluck/config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "pluck"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "pluck"))

	v.SetEnvPrefix("PLUCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("format", DefaultFormat)
	v.SetDefault("line_numbers", false)
	v.SetDefault("include_binary", false)
	v.SetDefault("max_selected", DefaultMaxSelected)
	v.SetDefault("default_path", DefaultPath)

	// Ignore defaults
	v.SetDefault("ignore.use_defaults", true)
	v.SetDefault("ignore.use_gitignore", true)
	v.SetDefault("ignore.defaults", ignore.DefaultDirs)
	v.SetDefault("ignore.patterns", []string{})

	// Session defaults
	v.SetDefault("session.enabled", true)
	v.SetDefault("session.path", "") // Empty means use DefaultSessionPath

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means use DefaultHistoryDir
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	// Watch defaults
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", DefaultWatchDebounceMS)

	// Token defaults
	v.SetDefault("tokens.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use the default log path
	v.SetDefault("logging.components", map[string]string{
		"tree":    "info",
		"state":   "info",
		"session": "info",
		"watch":   "warn",
		"tui":     "info",
	})

	// A missing file is fine; defaults and env still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in configured paths
	if strings.HasPrefix(cfg.Session.Path, "~") {
		cfg.Session.Path = filepath.Join(homeDir, cfg.Session.Path[1:])
	}
	if strings.HasPrefix(cfg.History.Path, "~") {
		cfg.History.Path = filepath.Join(homeDir, cfg.History.Path[1:])
	}
	if strings.HasPrefix(cfg.Logging.Path, "~") {
		cfg.Logging.Path = filepath.Join(homeDir, cfg.Logging.Path[1:])
	}

	return &cfg, nil
}

// SessionPath returns the configured session store path, falling back
// to the default.
func (c *Config) SessionPath() string {
	if c.Session.Path != "" {
		return c.Session.Path
	}
	return DefaultSessionPath()
}

// HistoryDir returns the configured history directory, falling back to
// the default.
func (c *Config) HistoryDir() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryDir()
}

// ConfigDir returns the directory holding the config file,
// preferring XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "pluck"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "pluck"), nil
}

// ConfigPath returns the configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory when absent.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes an annotated default config file, leaving any
// existing file untouched.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Pluck File Picker Configuration

# Output format: xml, markdown, json, llm
format: %s

# Prefix content lines with right-aligned line numbers
line_numbers: false

# Emit size/type descriptors for binary files instead of bare placeholders
include_binary: false

# Maximum number of entries one selection may hold
max_selected: %d

# Root to browse when none is given on the command line
default_path: %s

# Exclusion rules
ignore:
  # Skip well-known build and dependency directories by name
  use_defaults: true
  # Honor .gitignore files (cascading, nearest file wins)
  use_gitignore: true
  # Directory names covered by use_defaults
  defaults:
    - node_modules
    - .git
    - dist
    - build
    - coverage
    - target
  # Extra glob patterns, matched against paths relative to the root
  patterns: []

# Per-root browsing session persistence
session:
  enabled: true
  # Store path (empty means use default: $XDG_STATE_HOME/pluck/session)
  path: ""

# Bundle history written after each copy or save
history:
  enabled: true
  # Record directory (empty means use default: $XDG_STATE_HOME/pluck/history)
  path: ""
  retention_days: %d

# Live tree refresh while browsing
watch:
  enabled: true
  # Quiet window after a filesystem event, in milliseconds
  debounce_ms: %d

# Token estimates in render summaries
tokens:
  enabled: false

# Logging
logging:
  # debug, info, warn, or error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/pluck/pluck.log)
  path: ""
  # Component overrides
  components:
    tree: info
    state: info
    session: info
    watch: warn
    tui: info
`, DefaultFormat, DefaultMaxSelected, DefaultPath, DefaultRetentionDays, DefaultWatchDebounceMS)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/pluck/ for sessions, history, and logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "pluck")
}

// CacheDir returns $XDG_CACHE_HOME/pluck/ for the token encoder cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "pluck")
}

// DefaultSessionPath returns the default session store path.
func DefaultSessionPath() string {
	return filepath.Join(StateDir(), "session")
}

// DefaultHistoryDir returns the default history record directory.
func DefaultHistoryDir() string {
	return filepath.Join(StateDir(), "history")
}
