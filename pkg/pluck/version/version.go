// Package version carries build metadata injected at link time via
// -ldflags. The zero values identify a development build.
package version

// Set by the build targets; see stavefile.go.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
