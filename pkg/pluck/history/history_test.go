package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates log with valid directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		l, err := New(dir)
		if err != nil {
			t.Fatalf("New() error = %v, want nil", err)
		}
		if l == nil {
			t.Fatal("New() returned nil")
		}
	})

	t.Run("returns error for empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := New("")
		if err == nil {
			t.Fatal("New() error = nil, want error for empty directory")
		}
	})
}

func TestLog_EnsureDir(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	historyDir := filepath.Join(tmpDir, "history")

	l, err := New(historyDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := l.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	info, err := os.Stat(historyDir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("path is not a directory")
	}
}

func TestLog_Append(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := l.Append(Record{
		Root:        "/proj",
		Format:      "xml",
		Destination: DestClipboard,
		Files:       3,
		Folders:     1,
		Lines:       42,
		Bytes:       1234,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", rec.ID, err)
	}
	if rec.Time.IsZero() {
		t.Error("Time is zero, want a timestamp")
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if filepath.Ext(files[0].Name()) != ".json" {
		t.Errorf("record file %q is not a .json file", files[0].Name())
	}
}

func TestLog_AppendKeepsExplicitTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stamp := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	rec, err := l.Append(Record{Time: stamp, Root: "/proj"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if !rec.Time.Equal(stamp) {
		t.Errorf("Time = %v, want %v", rec.Time, stamp)
	}
}

func TestLog_List(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for i, dest := range []Destination{DestClipboard, DestStdout, DestFile} {
		_, err := l.Append(Record{
			Time:        base.Add(time.Duration(i) * time.Minute),
			Root:        "/proj",
			Destination: dest,
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	t.Run("returns newest first", func(t *testing.T) {
		records, err := l.List(0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
		if records[0].Destination != DestFile || records[2].Destination != DestClipboard {
			t.Errorf("order = [%s %s %s], want newest first",
				records[0].Destination, records[1].Destination, records[2].Destination)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		records, err := l.List(2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if records[0].Destination != DestFile {
			t.Errorf("records[0].Destination = %s, want %s", records[0].Destination, DestFile)
		}
	})

	t.Run("skips unparseable files", func(t *testing.T) {
		junk := filepath.Join(dir, "junk.json")
		if err := os.WriteFile(junk, []byte("not json"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		records, err := l.List(0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 3 {
			t.Errorf("got %d records, want 3 (junk skipped)", len(records))
		}
	})
}

func TestLog_ListMissingDir(t *testing.T) {
	t.Parallel()

	l, err := New(filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	records, err := l.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if records == nil {
		t.Fatal("List() = nil, want empty slice")
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestLog_Cleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := l.Append(Record{Root: "/old"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := l.Append(Record{Root: "/new"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Age the first record file past the retention window.
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	old := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(filepath.Join(dir, files[0].Name()), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if err := l.Cleanup(30); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	remaining, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("got %d files after cleanup, want 1", len(remaining))
	}
}

func TestLog_CleanupMissingDir(t *testing.T) {
	t.Parallel()

	l, err := New(filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := l.Cleanup(30); err != nil {
		t.Errorf("Cleanup() error = %v, want nil for missing directory", err)
	}
}

func TestLog_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.Append(Record{Root: "/proj"}); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := l.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != n {
		t.Fatalf("got %d records, want %d", len(records), n)
	}

	seen := make(map[string]bool, n)
	for _, rec := range records {
		if seen[rec.ID] {
			t.Errorf("duplicate ID %q", rec.ID)
		}
		seen[rec.ID] = true
	}
}
