package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither a config file nor a flag sets a value
const (
	DefaultDir        = "./assets/loops"
	DefaultJournalDir = ".loop-migrate"
)

// Environment variables that override file settings
const (
	EnvDir        = "LOOP_MIGRATE_DIR"
	EnvJournalDir = "LOOP_MIGRATE_JOURNAL_DIR"
)

// Config defines how migrations locate and write loop records
type Config struct {
	// Dir is the directory holding loop records
	Dir string `yaml:"dir" toml:"dir"`

	// Atomic writes each record via temp file + rename. Nil means true.
	Atomic *bool `yaml:"atomic" toml:"atomic"`

	// JournalDir is where run reports are kept
	JournalDir string `yaml:"journal_dir" toml:"journal_dir"`

	// Ignore lists record file names that are never migrated
	Ignore []IgnoreRule `yaml:"ignore" toml:"ignore"`
}

// IgnoreRule excludes record files by name
type IgnoreRule struct {
	Pattern string `yaml:"pattern" toml:"pattern"` // glob or regex pattern
	IsRegex bool   `yaml:"regex" toml:"regex"`     // if true, use regex matching
	Reason  string `yaml:"reason" toml:"reason"`   // why it's ignored (for reports)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Dir:        DefaultDir,
		JournalDir: DefaultJournalDir,
	}
}

// AtomicWrites reports whether records should be replaced atomically
func (c *Config) AtomicWrites() bool {
	return c.Atomic == nil || *c.Atomic
}

// Load loads a config file, choosing the decoder by extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir finds and loads a config file from dir. It returns the
// default config and an empty path when none exists.
func LoadFromDir(dir string) (*Config, string, error) {
	candidates := []string{
		".loop-migrate.yaml",
		".loop-migrate.yml",
		"loop-migrate.yaml",
		".loop-migrate.toml",
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}

	return Default(), "", nil
}

// ApplyEnv loads a .env file from dir when present and applies environment overrides
func (c *Config) ApplyEnv(dir string) error {
	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	if v := strings.TrimSpace(os.Getenv(EnvDir)); v != "" {
		c.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDir)); v != "" {
		c.JournalDir = v
	}
	return nil
}

// Validate checks the config for unusable values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return errors.New("dir must not be empty")
	}
	if strings.TrimSpace(c.JournalDir) == "" {
		return errors.New("journal_dir must not be empty")
	}
	if filepath.Clean(c.JournalDir) == filepath.Clean(c.Dir) {
		return errors.New("journal_dir must differ from dir: journal entries would be read as loop records")
	}
	if _, err := c.Matcher(); err != nil {
		return err
	}
	return nil
}
