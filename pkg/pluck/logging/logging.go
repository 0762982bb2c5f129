// Package logging hands out component-scoped loggers backed by a
// single log file. Loggers obtained before Init discard everything,
// so library code can grab one at construction time without caring
// whether the CLI has finished wiring configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

var charmLevels = [...]log.Level{
	log.DebugLevel,
	log.InfoLevel,
	log.WarnLevel,
	log.ErrorLevel,
}

// String returns the level's lowercase name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) charm() log.Level {
	if l < LevelDebug || l > LevelError {
		return log.InfoLevel
	}
	return charmLevels[l]
}

// ErrInvalidLevel is returned when a level string is not recognized.
var ErrInvalidLevel = errors.New("invalid log level")

var levelValues = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel parses a string into a Level. Matching is
// case-insensitive and "warning" is accepted as an alias for "warn".
func ParseLevel(s string) (Level, error) {
	if lvl, ok := levelValues[strings.ToLower(s)]; ok {
		return lvl, nil
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default level for components without an override.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records to stderr at the given level.
	// Empty keeps the console silent.
	ConsoleLevel string

	// TUIMode suppresses console output while the alternate screen
	// is active. The log file is unaffected.
	TUIMode bool
}

// Logger emits records for one named component to every configured
// sink.
type Logger struct {
	sinks     []*log.Logger
	component string
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) {
	for _, s := range l.sinks {
		s.Debug(msg, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) {
	for _, s := range l.sinks {
		s.Info(msg, args...)
	}
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) {
	for _, s := range l.sinks {
		s.Warn(msg, args...)
	}
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) {
	for _, s := range l.sinks {
		s.Error(msg, args...)
	}
}

// With returns a logger carrying extra key-value context.
func (l *Logger) With(args ...interface{}) *Logger {
	sinks := make([]*log.Logger, len(l.sinks))
	for i, s := range l.sinks {
		sinks[i] = s.With(args...)
	}
	return &Logger{sinks: sinks, component: l.component}
}

// registry is the process-wide logger table. Init and Close swap in
// fresh Logger values rather than mutating ones already handed out,
// so a handle held by another goroutine never changes underneath it.
type registry struct {
	mu        sync.Mutex
	ready     bool
	file      *os.File
	level     Level
	overrides map[string]Level
	loggers   map[string]*Logger
	console   Level
	useStderr bool
}

var reg = &registry{
	overrides: make(map[string]Level),
	loggers:   make(map[string]*Logger),
}

// Init opens the log file and applies levels. Calling it again
// replaces the previous configuration; loggers fetched with Get after
// that point use the new sinks.
func Init(cfg Config) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	overrides := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		overrides[comp] = parsed
	}

	useStderr := false
	console := LevelInfo
	if cfg.ConsoleLevel != "" && !cfg.TUIMode {
		console, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		useStderr = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	if reg.file != nil {
		_ = reg.file.Close()
	}
	reg.file = file
	reg.level = level
	reg.overrides = overrides
	reg.console = console
	reg.useStderr = useStderr
	reg.ready = true

	for component := range reg.loggers {
		reg.loggers[component] = reg.build(component)
	}
	return nil
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if logger, ok := reg.loggers[component]; ok {
		return logger
	}
	logger := reg.build(component)
	reg.loggers[component] = logger
	return logger
}

// build assembles a logger for the component at its effective level.
// Callers hold reg.mu.
func (r *registry) build(component string) *Logger {
	level := r.level
	if override, ok := r.overrides[component]; ok {
		level = override
	}

	if !r.ready {
		silent := log.NewWithOptions(io.Discard, log.Options{
			Level:  level.charm(),
			Prefix: component,
		})
		return &Logger{sinks: []*log.Logger{silent}, component: component}
	}

	sinks := []*log.Logger{log.NewWithOptions(r.file, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})}
	if r.useStderr {
		sinks = append(sinks, log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.console.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		}))
	}
	return &Logger{sinks: sinks, component: component}
}

// Close closes the log file and forgets all loggers. Handles held
// from before have their writes silently dropped.
func Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if !reg.ready {
		return nil
	}
	reg.ready = false
	reg.loggers = make(map[string]*Logger)
	reg.overrides = make(map[string]Level)

	if reg.file != nil {
		err := reg.file.Close()
		reg.file = nil
		if err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
	}
	return nil
}

// DefaultLogPath returns the log file location under the XDG state
// directory.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "pluck", "pluck.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level: "info",
		Path:  DefaultLogPath(),
	}
}
