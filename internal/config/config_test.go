package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDirDefaults(t *testing.T) {
	cfg, path, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, DefaultDir, cfg.Dir)
	assert.Equal(t, DefaultJournalDir, cfg.JournalDir)
	assert.True(t, cfg.AtomicWrites())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	content := `dir: ./res/loops
atomic: false
journal_dir: .history
ignore:
  - pattern: "*.draft.json"
    reason: work in progress
  - pattern: "^tmp[0-9]+\\.json$"
    regex: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".loop-migrate.yaml"), []byte(content), 0o644))

	cfg, path, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".loop-migrate.yaml"), path)
	assert.Equal(t, "./res/loops", cfg.Dir)
	assert.Equal(t, ".history", cfg.JournalDir)
	assert.False(t, cfg.AtomicWrites())
	require.Len(t, cfg.Ignore, 2)

	m, err := cfg.Matcher()
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	ok, reason := m.MatchReason("samba.draft.json")
	assert.True(t, ok)
	assert.Equal(t, "work in progress", reason)

	assert.True(t, m.Match("tmp12.json"))
	assert.False(t, m.Match("samba.json"))
	assert.False(t, m.Match("xtmp12.json"))
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	content := `dir = "./assets/loops"
journal_dir = ".journal"

[[ignore]]
pattern = "backup-*"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".loop-migrate.toml"), []byte(content), 0o644))

	cfg, _, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "./assets/loops", cfg.Dir)
	assert.Equal(t, ".journal", cfg.JournalDir)
	assert.True(t, cfg.AtomicWrites())

	m, err := cfg.Matcher()
	require.NoError(t, err)
	assert.True(t, m.Match("backup-samba.json"))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop-migrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory: ./loops\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadRegex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop-migrate.yaml")
	content := "ignore:\n  - pattern: \"([\"\n    regex: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop-migrate.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDir, cfg.Dir)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDir, "")
	require.NoError(t, os.Unsetenv(EnvDir))
	t.Setenv(EnvJournalDir, "/var/lib/loop-migrate")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOOP_MIGRATE_DIR=./res/loops\n"), 0o644))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(dir))

	assert.Equal(t, "./res/loops", cfg.Dir)
	assert.Equal(t, "/var/lib/loop-migrate", cfg.JournalDir)
}

func TestApplyEnvWithoutFile(t *testing.T) {
	t.Setenv(EnvDir, "")
	t.Setenv(EnvJournalDir, "")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(t.TempDir()))
	assert.Equal(t, DefaultDir, cfg.Dir)
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything.json"))
	assert.Equal(t, 0, m.Len())
}

func TestValidateRejectsJournalInsideDir(t *testing.T) {
	cfg := Default()
	cfg.Dir = "./assets/loops"
	cfg.JournalDir = "assets/loops/"
	assert.Error(t, cfg.Validate())

	cfg.JournalDir = ".loop-migrate"
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsJournalInDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop-migrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dir: ./res/loops\njournal_dir: res/loops\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
