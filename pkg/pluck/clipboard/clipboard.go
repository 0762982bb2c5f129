// Package clipboard copies rendered output to the system clipboard.
package clipboard

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/pluck-sh/pluck/pkg/pluck/logging"
)

// ErrUnavailable is returned when the platform has no usable clipboard.
var ErrUnavailable = errors.New("clipboard: not available on this platform")

// Copier writes text to a clipboard.
type Copier interface {
	Copy(text string) error
}

// System copies to the operating system clipboard.
type System struct {
	log *logging.Logger
}

// NewSystem returns a Copier backed by the system clipboard.
func NewSystem() *System {
	return &System{log: logging.Get("clipboard")}
}

// Copy writes text to the system clipboard. Headless hosts often lack a
// clipboard utility; the error is returned so the caller can surface it
// instead of failing the run.
func (s *System) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		s.log.Warn("clipboard write failed", "error", err)
		return err
	}
	s.log.Debug("copied to clipboard", "bytes", len(text))
	return nil
}

// Memory is a Copier that keeps the last copied text in memory. It
// stands in for the system clipboard when exercising copy flows.
type Memory struct {
	mu   sync.Mutex
	text string
	seen bool
}

// Copy records text as the clipboard contents.
func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.seen = true
	return nil
}

// Text returns the most recently copied text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Copied reports whether Copy has been called.
func (m *Memory) Copied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen
}

var (
	_ Copier = (*System)(nil)
	_ Copier = (*Memory)(nil)
)
