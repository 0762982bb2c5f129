// Package history records what each delivered bundle contained and
// where it went.
package history

import "time"

// Destination names where rendered output was delivered.
type Destination string

const (
	// DestClipboard marks output copied to the system clipboard.
	DestClipboard Destination = "clipboard"
	// DestStdout marks output printed to standard output.
	DestStdout Destination = "stdout"
	// DestFile marks output saved to a file.
	DestFile Destination = "file"
)

// Record represents a single delivered bundle.
type Record struct {
	ID          string      `json:"id"`
	Time        time.Time   `json:"time"`
	Root        string      `json:"root"`
	Format      string      `json:"format"`
	Destination Destination `json:"destination"`
	Target      string      `json:"target,omitempty"` // File path when Destination is DestFile
	Files       int         `json:"files"`
	Folders     int         `json:"folders"`
	Lines       int         `json:"lines"`
	Bytes       int         `json:"bytes"`
	Tokens      int         `json:"tokens,omitempty"`
}
