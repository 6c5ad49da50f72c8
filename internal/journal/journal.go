package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// Version of the on-disk entry layout
const Version = "1.0"

// ErrNotFound is returned when no entry matches a run id
var ErrNotFound = errors.New("journal entry not found")

// Entry represents one recorded migration run
type Entry struct {
	Version  string            `json:"version"`
	ID       string            `json:"id"`
	SavedAt  time.Time         `json:"saved_at"`
	Report   *models.RunReport `json:"report"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Manager handles journal operations
type Manager struct {
	baseDir string
}

// NewManager creates a journal manager rooted at baseDir
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = ".loop-migrate"
	}
	return &Manager{baseDir: baseDir}
}

// Dir returns the journal directory
func (m *Manager) Dir() string {
	return m.baseDir
}

// Save records a run report and returns the stored entry
func (m *Manager) Save(report *models.RunReport, metadata map[string]string) (*Entry, error) {
	if report == nil {
		return nil, errors.New("journal: nil report")
	}
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	entry := &Entry{
		Version:  Version,
		ID:       uuid.NewString(),
		SavedAt:  time.Now().UTC(),
		Report:   report,
		Metadata: metadata,
	}

	content, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal journal entry: %w", err)
	}

	path := filepath.Join(m.baseDir, entryFilename(entry))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("write journal entry: %w", err)
	}
	return entry, nil
}

// Load loads an entry by run id. A unique id prefix is accepted.
func (m *Manager) Load(id string) (*Entry, error) {
	path, err := m.find(id)
	if err != nil {
		return nil, err
	}
	return readEntry(path)
}

// List returns all entries, newest first
func (m *Manager) List() ([]*Entry, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*Entry
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}

		entry, err := readEntry(filepath.Join(m.baseDir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Delete removes an entry by run id
func (m *Manager) Delete(id string) error {
	path, err := m.find(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Exists checks if an entry exists
func (m *Manager) Exists(id string) bool {
	_, err := m.find(id)
	return err == nil
}

// find resolves a run id or unique id prefix to its file
func (m *Manager) find(id string) (string, error) {
	key := sanitize(strings.TrimSpace(id))
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	matches, err := filepath.Glob(filepath.Join(m.baseDir, "*_"+key+"*.json"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous (%d matches)", id, len(matches))
	}
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse journal entry %s: %w", path, err)
	}
	return &entry, nil
}

// entryFilename sorts by time and embeds the run id, e.g. 20261019T101500Z_<uuid>.json
func entryFilename(e *Entry) string {
	return e.SavedAt.Format("20060102T150405Z") + "_" + e.ID + ".json"
}

// sanitize keeps only characters that can appear in a run id
func sanitize(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') || (r >= '0' && r <= '9') || r == '-' {
			sb.WriteRune(r)
		}
	}
	return strings.ToLower(sb.String())
}
