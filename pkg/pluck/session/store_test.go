package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pluck-sh/pluck/pkg/pluck/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestStoreOpenClose(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	store := openTestStore(t)

	snap := state.Snapshot{
		Expanded:    []string{"/proj/docs", "/proj/src"},
		Selected:    []string{"/proj/src/main.go"},
		Query:       "main",
		Cursor:      2,
		Format:      "markdown",
		LineNumbers: true,
	}

	if err := store.Save("/proj", snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := store.Load("/proj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if rec.Version != Version {
		t.Errorf("Version = %d, want %d", rec.Version, Version)
	}

	if rec.SavedAt.IsZero() {
		t.Error("SavedAt is zero, want a timestamp")
	}

	if !reflect.DeepEqual(rec.Snapshot, snap) {
		t.Errorf("Snapshot = %+v, want %+v", rec.Snapshot, snap)
	}
}

func TestLoadMissing(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Load("/nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestSaveReplaces(t *testing.T) {
	store := openTestStore(t)

	first := state.Snapshot{Query: "old"}
	second := state.Snapshot{Query: "new", Format: "json"}

	if err := store.Save("/proj", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("/proj", second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := store.Load("/proj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if rec.Snapshot.Query != "new" || rec.Snapshot.Format != "json" {
		t.Errorf("Snapshot = %+v, want the second save", rec.Snapshot)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("/proj", state.Snapshot{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete("/proj"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Load("/proj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing root is not an error.
	if err := store.Delete("/nowhere"); err != nil {
		t.Errorf("Delete of missing root failed: %v", err)
	}
}

func TestRootsAreIsolated(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("/a", state.Snapshot{Query: "alpha"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("/b", state.Snapshot{Query: "beta"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	recA, err := store.Load("/a")
	if err != nil {
		t.Fatalf("Load(/a) failed: %v", err)
	}
	recB, err := store.Load("/b")
	if err != nil {
		t.Fatalf("Load(/b) failed: %v", err)
	}

	if recA.Snapshot.Query != "alpha" || recB.Snapshot.Query != "beta" {
		t.Errorf("roots bled into each other: %q / %q", recA.Snapshot.Query, recB.Snapshot.Query)
	}
}

func TestLoadDiscardsOtherVersions(t *testing.T) {
	store := openTestStore(t)

	stale := &Record{Version: Version + 1, SavedAt: time.Now(), Snapshot: state.Snapshot{Query: "old"}}
	value, err := stale.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	err = store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("/proj"), value)
	})
	if err != nil {
		t.Fatalf("raw write failed: %v", err)
	}

	if _, err := store.Load("/proj"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}

	// The stale record is gone for good.
	if _, err := store.Load("/proj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Load error = %v, want ErrNotFound", err)
	}
}
