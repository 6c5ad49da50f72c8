package models

import "time"

// FileStatus is the outcome for one directory entry
type FileStatus string

const (
	FileMigrated  FileStatus = "migrated"
	FileUnchanged FileStatus = "unchanged"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
)

// FileResult records what a migration did to one file
type FileResult struct {
	Name    string     `json:"name"`
	Status  FileStatus `json:"status"`
	Changes []Change   `json:"changes,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// RunSummary provides aggregate counts for a run
type RunSummary struct {
	Entries   int `json:"entries"`
	Records   int `json:"records"`
	Migrated  int `json:"migrated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Changes   int `json:"changes"`
}

// RunReport contains the full result of one migration run
type RunReport struct {
	Migration   string       `json:"migration"`
	Idempotency Idempotency  `json:"idempotency"`
	Dir         string       `json:"dir"`
	DryRun      bool         `json:"dry_run"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Summary     RunSummary   `json:"summary"`
	Files       []FileResult `json:"files"`
	Error       string       `json:"error,omitempty"`
}

// NewRunReport creates an empty run report
func NewRunReport(migration string, idem Idempotency, dir string, dryRun bool) *RunReport {
	return &RunReport{
		Migration:   migration,
		Idempotency: idem,
		Dir:         dir,
		DryRun:      dryRun,
		Files:       make([]FileResult, 0),
	}
}

// AddFile adds a file result to the report and updates the summary
func (r *RunReport) AddFile(f FileResult) {
	r.Files = append(r.Files, f)

	switch f.Status {
	case FileMigrated:
		r.Summary.Records++
		r.Summary.Migrated++
	case FileUnchanged:
		r.Summary.Records++
		r.Summary.Unchanged++
	case FileFailed:
		r.Summary.Records++
		r.Summary.Failed++
	case FileSkipped:
		r.Summary.Skipped++
	}
	r.Summary.Changes += len(f.Changes)
}

// Failed reports whether the run was aborted
func (r *RunReport) Failed() bool {
	return r.Error != ""
}
