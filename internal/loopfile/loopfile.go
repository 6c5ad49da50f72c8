package loopfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// ParseError reports a loop record whose content is not a JSON object
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteOptions controls how a record is written back to disk
type WriteOptions struct {
	// Atomic writes to a temp file in the same directory and renames it over the target
	Atomic bool
}

// IsRecordFile reports whether a directory entry name marks a loop record
func IsRecordFile(name string) bool {
	return strings.HasSuffix(name, models.RecordExt)
}

// RecordName derives a record's name from its file name by cutting at the
// first ".json", so "a.json.json" becomes "a".
func RecordName(fileName string) string {
	name, _, _ := strings.Cut(fileName, models.RecordExt)
	return name
}

// Read loads and parses a loop record
func Read(path string) (*Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	obj, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return obj, nil
}

// Format renders a record as 2-space indented JSON followed by a newline
func Format(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	return buf.Bytes(), nil
}

// Write serializes obj and replaces the file at path, keeping its permissions.
// A symlinked record is written through to its target.
func Write(path string, obj *Object, opts WriteOptions) error {
	data, err := Format(obj)
	if err != nil {
		return err
	}

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if !opts.Atomic {
		if err := os.WriteFile(path, data, perm); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return nil
	}
	return writeFileAtomic(path, data, perm)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
