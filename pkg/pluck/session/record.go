// Package session persists per-root browsing state between runs.
package session

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/pluck-sh/pluck/pkg/pluck/state"
)

// Version is incremented when the record format changes. Records
// written under another version are discarded on load.
const Version = 1

// Record is one saved browsing session.
type Record struct {
	Version  int
	SavedAt  time.Time
	Snapshot state.Snapshot
}

// Encode serializes the record to bytes using gob.
func (r *Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the record using gob.
func (r *Record) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}
