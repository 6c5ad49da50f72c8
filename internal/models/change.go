package models

// ChangeKind represents the type of change
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Change represents a single field-level difference between a record before and after a migration
type Change struct {
	Kind   ChangeKind  `json:"kind"`
	Path   string      `json:"path"` // e.g., voices.ride
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}
