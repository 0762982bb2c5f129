// Package config provides configuration management for the pluck file
// picker.
package config

// Default configuration values for pluck.
const (
	// DefaultFormat is the output format used when none is configured.
	DefaultFormat = "xml"

	// DefaultPath is the root browsed when none is specified.
	DefaultPath = "."

	// DefaultMaxSelected caps how many entries one selection may hold.
	DefaultMaxSelected = 400

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/pluck"

	// DefaultRetentionDays is the default number of days to retain
	// history records.
	DefaultRetentionDays = 30

	// DefaultWatchDebounceMS is the quiet window, in milliseconds, the
	// watcher waits after a filesystem event before requesting a rebuild.
	DefaultWatchDebounceMS = 250
)
