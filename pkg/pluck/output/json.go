package output

import (
	"bytes"
	"encoding/json"
)

// jsonFile represents a file node. Binary files carry no content; when
// descriptors are enabled they carry size and type instead.
type jsonFile struct {
	Type     string  `json:"type"`
	Path     string  `json:"path"`
	Binary   bool    `json:"binary"`
	Size     int64   `json:"size,omitempty"`
	FileType string  `json:"file_type,omitempty"`
	Content  *string `json:"content,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// jsonSymlink represents a symbolic link node.
type jsonSymlink struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// jsonDir represents a directory node with its selected contents.
type jsonDir struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Contents []any  `json:"contents"`
}

// JSONFormatter renders the selection as an indented JSON array of
// typed nodes. Content is always raw; line numbering does not apply.
type JSONFormatter struct{}

// Format writes the rendered selection to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, req *Request) error {
	rs := newRenderSet(req)
	nodes := make([]any, 0, len(rs.top))
	for _, it := range rs.top {
		nodes = append(nodes, f.buildNode(rs, it))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(nodes)
}

func (f *JSONFormatter) buildNode(rs *renderSet, it *Item) any {
	rel := rs.rel(it)

	switch {
	case it.Dir:
		contents := make([]any, 0, len(rs.children[it.Path]))
		for _, child := range rs.children[it.Path] {
			contents = append(contents, f.buildNode(rs, child))
		}
		return jsonDir{Type: "directory", Path: rel, Contents: contents}

	case it.Symlink:
		return jsonSymlink{Type: "symlink", Path: rel}

	default:
		fc := loadFile(it)
		switch {
		case fc.reason != "":
			return jsonFile{Type: "file", Path: rel, Error: fc.reason}
		case fc.binary && rs.req.IncludeBinary:
			return jsonFile{
				Type:     "file",
				Path:     rel,
				Binary:   true,
				Size:     it.Size,
				FileType: fileType(it.Path),
			}
		case fc.binary:
			return jsonFile{Type: "file", Path: rel, Binary: true}
		default:
			return jsonFile{Type: "file", Path: rel, Content: &fc.text}
		}
	}
}

func init() {
	Register(string(FormatJSON), func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
