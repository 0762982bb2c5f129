package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
)

// fileContent is the outcome of loading one file at render time.
type fileContent struct {
	text   string
	binary bool
	reason string // non-empty when the file could not be read
}

// loadFile reads an item's content. Extension-flagged binaries are not
// opened at all; everything else is sniffed after reading so binary
// data never lands in text output.
func loadFile(it *Item) fileContent {
	if it.Binary {
		return fileContent{binary: true}
	}
	data, err := os.ReadFile(it.Path)
	if err != nil {
		return fileContent{reason: readReason(err)}
	}
	if ignore.BinaryByContent(data) {
		return fileContent{binary: true}
	}
	return fileContent{text: string(data)}
}

// readReason strips the path from a read error, leaving the bare cause
// for embedding in output markers.
func readReason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}

// formatContent prepares file content for embedding: either numbered
// lines or the raw text with a guaranteed trailing newline.
func formatContent(content string, lineNumbers bool) string {
	if lineNumbers {
		return numberLines(content)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content
}

// numberLines prefixes each line with a right-aligned 1-based number.
func numberLines(content string) string {
	var b strings.Builder
	for i, line := range splitLines(content) {
		fmt.Fprintf(&b, "%6d | %s\n", i+1, line)
	}
	return b.String()
}

// splitLines breaks content into lines without opening a final empty
// line for the trailing newline. Windows line endings are tolerated.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// fileType names a file's type for binary descriptors, from its
// extension.
func fileType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "unknown"
	}
	return ext
}

// sizeText renders a byte count for binary descriptors.
func sizeText(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.Bytes(uint64(size))
}
