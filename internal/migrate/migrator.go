package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/stackgen-cli/loop-migrate/internal/config"
	"github.com/stackgen-cli/loop-migrate/internal/diff"
	"github.com/stackgen-cli/loop-migrate/internal/loopfile"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// LockFileName is created inside the target directory while a migration runs
const LockFileName = ".loop-migrate.lock"

// ErrLocked is returned when another migration holds the directory lock
var ErrLocked = errors.New("another migration is already running against this directory")

// Options controls a migration run
type Options struct {
	// DryRun computes changes without writing anything
	DryRun bool
	// Atomic replaces files via temp file + rename
	Atomic bool
	// Ignore holds file name patterns that are never migrated
	Ignore *config.Matcher
	// Out receives the progress trace; discarded when nil
	Out    io.Writer
	Logger *slog.Logger
}

// Migrator applies one Transform to every loop record in a directory
type Migrator struct {
	dir       string
	transform Transform
	opts      Options
	out       io.Writer
	logger    *slog.Logger
}

// New creates a migrator for dir
func New(dir string, t Transform, opts Options) (*Migrator, error) {
	if dir == "" {
		return nil, errors.New("migration directory is required")
	}
	if t == nil {
		return nil, errors.New("migration transform is required")
	}

	m := &Migrator{
		dir:       dir,
		transform: t,
		opts:      opts,
		out:       opts.Out,
		logger:    opts.Logger,
	}
	if m.out == nil {
		m.out = io.Discard
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m, nil
}

// Run migrates every record in the directory in listing order. The first
// failure aborts the run; the returned report always covers the files handled
// up to that point.
func (m *Migrator) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport(m.transform.Name(), m.transform.Idempotency(), m.dir, m.opts.DryRun)
	report.StartedAt = time.Now()

	fail := func(name string, err error) (*models.RunReport, error) {
		if name != "" {
			report.AddFile(models.FileResult{
				Name:   name,
				Status: models.FileFailed,
				Error:  err.Error(),
			})
		}
		report.Error = err.Error()
		report.FinishedAt = time.Now()
		m.logger.Error("migration aborted",
			"migration", report.Migration,
			"dir", m.dir,
			"migrated", report.Summary.Migrated,
			"error", err)
		return report, err
	}

	if !m.opts.DryRun {
		unlock, err := m.lock()
		if err != nil {
			return fail("", err)
		}
		defer unlock()
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fail("", fmt.Errorf("failed to read directory: %w", err))
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == LockFileName {
			continue
		}
		names = append(names, e.Name())
	}
	report.Summary.Entries = len(names)

	m.logger.Info("migration started",
		"migration", report.Migration,
		"idempotency", string(report.Idempotency),
		"dir", m.dir,
		"entries", len(names),
		"dry_run", m.opts.DryRun)
	fmt.Fprintf(m.out, "%q\n", names)

	for _, e := range entries {
		name := e.Name()
		if name == LockFileName || !loopfile.IsRecordFile(name) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return fail("", fmt.Errorf("migration interrupted before %s: %w", name, err))
		}

		if e.IsDir() {
			report.AddFile(models.FileResult{Name: name, Status: models.FileSkipped, Error: "is a directory"})
			continue
		}
		if ignored, reason := m.opts.Ignore.MatchReason(name); ignored {
			m.logger.Debug("record ignored", "file", name, "reason", reason)
			report.AddFile(models.FileResult{Name: name, Status: models.FileSkipped, Error: reason})
			continue
		}

		fmt.Fprintf(m.out, "is json: %s\n", name)

		result, err := m.migrateFile(name)
		if err != nil {
			return fail(name, err)
		}
		report.AddFile(result)
	}

	report.FinishedAt = time.Now()
	m.logger.Info("migration finished",
		"migration", report.Migration,
		"records", report.Summary.Records,
		"migrated", report.Summary.Migrated,
		"unchanged", report.Summary.Unchanged,
		"skipped", report.Summary.Skipped)
	return report, nil
}

// migrateFile reads, transforms and rewrites one record
func (m *Migrator) migrateFile(name string) (models.FileResult, error) {
	path := filepath.Join(m.dir, name)

	rec, err := loopfile.Read(path)
	if err != nil {
		return models.FileResult{}, err
	}

	before := rec.Clone()
	if err := m.transform.Apply(rec, name); err != nil {
		return models.FileResult{}, fmt.Errorf("%s: %w", path, err)
	}

	changes := diff.Compare(before, rec)
	status := models.FileMigrated
	if len(changes) == 0 {
		status = models.FileUnchanged
	}

	if !m.opts.DryRun {
		if err := loopfile.Write(path, rec, loopfile.WriteOptions{Atomic: m.opts.Atomic}); err != nil {
			return models.FileResult{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	m.logger.Debug("record processed", "file", name, "status", string(status), "changes", len(changes))
	return models.FileResult{Name: name, Status: status, Changes: changes}, nil
}

// lock takes the directory lock and returns its release func
func (m *Migrator) lock() (func(), error) {
	lockPath := filepath.Join(m.dir, LockFileName)
	if _, err := os.Stat(m.dir); err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	lk := flock.New(lockPath)
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		if err := lk.Unlock(); err != nil {
			m.logger.Warn("failed to release directory lock", "lock", lockPath, "error", err)
		}
		_ = os.Remove(lockPath)
	}, nil
}
