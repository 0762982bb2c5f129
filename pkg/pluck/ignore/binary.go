package ignore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen bounds how much of a file the content sniff reads.
const sniffLen = 8000

// binaryExts marks extensions treated as binary without reading content.
var binaryExts = map[string]struct{}{
	// VCS and index data
	"idx": {}, "pack": {}, "rev": {}, "index": {},
	// Images
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "tiff": {},
	"webp": {}, "svg": {}, "ico": {},
	// Audio
	"mp3": {}, "wav": {}, "ogg": {}, "flac": {}, "m4a": {}, "aac": {}, "wma": {},
	// Video
	"mp4": {}, "avi": {}, "mkv": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {},
	// Archives
	"zip": {}, "rar": {}, "7z": {}, "tar": {}, "gz": {}, "iso": {},
	// Executables and libraries
	"exe": {}, "dll": {}, "so": {}, "dylib": {},
	// Documents
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {},
	// Compiled artifacts
	"class": {}, "pyc": {}, "pyd": {}, "pyo": {},
}

// BinaryByName reports whether the extension alone marks path as binary.
func BinaryByName(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	_, ok := binaryExts[ext]
	return ok
}

// BinaryByContent reports whether data looks binary. A NUL byte within
// the sniff window is the deciding test, same as git's heuristic.
func BinaryByContent(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// IsBinary combines the extension check with a content sniff of the
// file's leading bytes. An unreadable file counts as not binary; the
// caller surfaces read errors on its own terms.
func IsBinary(path string) bool {
	if BinaryByName(path) {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	return BinaryByContent(buf[:n])
}
