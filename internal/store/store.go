// Package store persists the application's collections as JSON files
// under a single data directory: contacts.json, meetings.json,
// settings.json and activity.json.
//
// Read-side policy: a missing or corrupt file degrades to the empty
// collection (or default settings) so a broken disk never blocks
// startup. Write-side policy is the opposite: every mutation persists
// synchronously and a failed write is reported to the caller instead of
// being swallowed.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when an operation references an unknown
// contact or meeting id.
var ErrNotFound = errors.New("store: not found")

// readJSON loads path into v. Returns fs.ErrNotExist when the file is
// absent; callers treat both absence and decode failure as "start
// empty".
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON persists v to path atomically (temp file + rename, 0600),
// creating the parent directory when missing. Any failure is wrapped so
// the collection name shows up in the error chain.
func writeJSON(path string, v any) error {
	if err := doWriteJSON(path, v); err != nil {
		return fmt.Errorf("store: persist %s: %w", filepath.Base(path), err)
	}
	return nil
}

func doWriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agentbook-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// missing reports whether err is only "file does not exist", the benign
// first-run case.
func missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
