// Package store persists annotation records as one JSON file per
// (annotator, model, row) key under a per-user directory tree. Writes are
// atomic (temp file, fsync, rename); unreadable records are quarantined
// rather than allowed to block the reviewer.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CorruptSuffix is appended to quarantined record files.
const CorruptSuffix = ".corrupt"

// LoadStatus describes how a Load call resolved.
type LoadStatus int

const (
	// LoadOK: the record was read and decoded.
	LoadOK LoadStatus = iota
	// LoadAbsent: no record exists (missing or zero-length file).
	LoadAbsent
	// LoadRecovered: the file existed but did not decode; it was renamed
	// with CorruptSuffix and an empty record returned.
	LoadRecovered
	// LoadFailed: an unexpected I/O error; an empty record is still
	// returned so the review can continue.
	LoadFailed
)

// String returns a short label for logs and payloads.
func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadAbsent:
		return "absent"
	case LoadRecovered:
		return "recovered"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store reads and writes annotation records beneath a root directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir. The directory is created lazily by
// EnsureUserDirs / Save.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the annotations root directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureUserDirs idempotently creates the per-user directory and one
// subdirectory per model, returning the user directory path. The username
// is sanitized before use.
func (s *Store) EnsureUserDirs(username string, models []string) (string, error) {
	userDir := filepath.Join(s.root, SanitizeUsername(username))
	if err := os.MkdirAll(userDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}
	for _, m := range models {
		if err := os.MkdirAll(filepath.Join(userDir, m), 0o700); err != nil {
			return "", fmt.Errorf("failed to create model directory %q: %w", m, err)
		}
	}
	return userDir, nil
}

// PathFor returns the record path for a (user, model, row) key:
// {root}/{sanitized user}/{model}/T{rowIndex+1}.json.
func (s *Store) PathFor(username, model string, rowIndex int) string {
	return filepath.Join(s.root, SanitizeUsername(username), model, fmt.Sprintf("T%d.json", rowIndex+1))
}

// Load reads the record for a key. It never fails the caller: a missing or
// empty file reports LoadAbsent, an undecodable file is renamed with
// CorruptSuffix and reports LoadRecovered, and any other I/O error reports
// LoadFailed. In every non-OK case an empty record is returned alongside a
// diagnostic error (nil for LoadAbsent) that callers may log or surface.
func (s *Store) Load(username, model string, rowIndex int) (*Record, LoadStatus, error) {
	path := s.PathFor(username, model, rowIndex)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Record{}, LoadAbsent, nil
		}
		return &Record{}, LoadFailed, err
	}
	if len(data) == 0 {
		return &Record{}, LoadAbsent, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Quarantine, best effort. The original stays on disk under the
		// corrupt name so nothing is destroyed.
		_ = os.Rename(path, path+CorruptSuffix)
		return &Record{}, LoadRecovered, err
	}
	return &rec, LoadOK, nil
}

// Save writes the record for a key atomically: marshal, write to a temp
// file in the same directory, fsync, then rename over the target. A reader
// never observes a partial file; on failure the previous record (if any) is
// untouched and the temp file is removed.
func (s *Store) Save(username, model string, rowIndex int, rec *Record) error {
	path := s.PathFor(username, model, rowIndex)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temp record file: %w", err)
	}

	// Clean up the temp file on failure; the existing record is preserved.
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync record: %w", err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to finalize record: %w", err)
	}

	success = true
	return nil
}
