package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log manages bundle records on the filesystem, one JSON file each.
type Log struct {
	dir string
	mu  sync.Mutex
}

// New creates a Log over the given directory.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Log, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Log{dir: dir}, nil
}

// EnsureDir creates the record directory if it does not exist.
func (l *Log) EnsureDir() error {
	return os.MkdirAll(l.dir, 0o755)
}

// Append assigns the record a fresh ID, stamps it if it carries no
// time, and persists it. The stored record is returned.
func (l *Log) Append(rec Record) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.ID = uuid.NewString()
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	if err := l.writeRecord(&rec); err != nil {
		return nil, fmt.Errorf("failed to write history record: %w", err)
	}

	return &rec, nil
}

// writeRecord writes a record to a JSON file in the record directory.
// The timestamp prefix keeps directory listings readable; the ID makes
// the filename unique.
func (l *Log) writeRecord(rec *Record) error {
	filename := fmt.Sprintf("%s-%s.json", rec.Time.UTC().Format("2006-01-02T15-04-05"), rec.ID)
	filePath := filepath.Join(l.dir, filename)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Write atomically using a temp file and rename
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		// Cleanup temp file on rename failure
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// List returns records sorted by time descending (newest first).
// If limit is 0 or negative, all records are returned.
func (l *Log) List(limit int) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var records []Record
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		rec, err := l.readRecordFile(f.Name())
		if err != nil {
			// Skip files that can't be parsed
			continue
		}
		records = append(records, *rec)
	}

	// Sort by time descending (newest first)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})

	// Apply limit
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	// Ensure we return an empty slice, not nil
	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// readRecordFile reads and parses a record from a JSON file.
func (l *Log) readRecordFile(filename string) (*Record, error) {
	filePath := filepath.Join(l.dir, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

// Cleanup removes records older than retentionDays.
func (l *Log) Cleanup(retentionDays int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		filePath := filepath.Join(l.dir, f.Name())

		info, err := f.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil {
				// Keep going; a stuck file should not stop cleanup
				continue
			}
		}
	}

	return nil
}
