package session

import (
	"errors"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pluck-sh/pluck/pkg/pluck/logging"
	"github.com/pluck-sh/pluck/pkg/pluck/state"
)

// ErrNotFound is returned when no session is stored for a root.
var ErrNotFound = errors.New("session not found")

// Store wraps Badger for session persistence, one record per root.
type Store struct {
	db  *badger.DB
	log *logging.Logger
}

// Open opens or creates a session store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, log: logging.Get("session")}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the snapshot for a root, stamping it with the current
// time. An existing record for the same root is replaced.
func (s *Store) Save(root string, snap state.Snapshot) error {
	rec := &Record{Version: Version, SavedAt: time.Now(), Snapshot: snap}
	value, err := rec.Encode()
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(root), value)
	})
	if err != nil {
		return err
	}

	s.log.Debug("session saved", "root", root, "selected", len(snap.Selected))
	return nil
}

// Load retrieves the session saved for a root. A record written under
// another version is deleted and reported as not found.
func (s *Store) Load(root string) (*Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(root))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(rec.Decode)
	})
	if err != nil {
		return nil, err
	}

	if rec.Version != Version {
		s.log.Warn("discarding session written under another version", "root", root, "version", rec.Version)
		if err := s.Delete(root); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return &rec, nil
}

// Delete removes the session stored for a root.
func (s *Store) Delete(root string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(root))
	})
}
