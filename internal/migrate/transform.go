package migrate

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stackgen-cli/loop-migrate/internal/loopfile"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// Transform is a field-level change applied to every loop record in a directory
type Transform interface {
	// Name identifies the migration in reports and the journal
	Name() string
	Description() string
	Idempotency() models.Idempotency
	// Apply mutates rec in place. fileName is the record's base file name.
	Apply(rec *loopfile.Object, fileName string) error
}

// StructuralError reports a record that lacks the shape a transform needs
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

// AddEmptyVoice sets voices.<Voice> to an empty list
type AddEmptyVoice struct {
	Voice string
}

func (t AddEmptyVoice) Name() string { return "add-voice:" + t.Voice }

func (t AddEmptyVoice) Description() string {
	return fmt.Sprintf("set %s.%s = []", models.FieldVoices, t.Voice)
}

func (t AddEmptyVoice) Idempotency() models.Idempotency { return models.Idempotent }

func (t AddEmptyVoice) Apply(rec *loopfile.Object, _ string) error {
	v, ok := rec.Get(models.FieldVoices)
	if !ok {
		return &StructuralError{Field: models.FieldVoices, Reason: "is missing"}
	}
	voices, ok := v.(*loopfile.Object)
	if !ok {
		return &StructuralError{Field: models.FieldVoices, Reason: "is not an object"}
	}
	voices.Set(t.Voice, []any{})
	return nil
}

// AssignIdentity gives every record a fresh random id and a name taken from its file name.
// Each run replaces previously assigned ids.
type AssignIdentity struct {
	// NewID generates identifiers; uuid.NewString when nil
	NewID func() string
}

func (t AssignIdentity) Name() string { return "assign-identity" }

func (t AssignIdentity) Description() string {
	return fmt.Sprintf("set %s = <uuid v4>, %s = <file name without %s>", models.FieldID, models.FieldName, models.RecordExt)
}

func (t AssignIdentity) Idempotency() models.Idempotency { return models.NonIdempotent }

func (t AssignIdentity) Apply(rec *loopfile.Object, fileName string) error {
	newID := t.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rec.Set(models.FieldID, newID())
	rec.Set(models.FieldName, loopfile.RecordName(fileName))
	return nil
}

// SetField unconditionally sets a top-level field to a constant value
type SetField struct {
	Key   string
	Value any
}

func (t SetField) Name() string { return "set-field:" + t.Key }

func (t SetField) Description() string {
	val, err := json.Marshal(t.Value)
	if err != nil {
		return fmt.Sprintf("set %s = %v", t.Key, t.Value)
	}
	return fmt.Sprintf("set %s = %s", t.Key, val)
}

func (t SetField) Idempotency() models.Idempotency { return models.Idempotent }

func (t SetField) Apply(rec *loopfile.Object, _ string) error {
	rec.Set(t.Key, t.Value)
	return nil
}

// ParseValue turns a command-line literal into a record value. Valid JSON is
// decoded; anything else is kept as a plain string.
func ParseValue(s string) any {
	if v, err := loopfile.ParseValue([]byte(s)); err == nil {
		return v
	}
	return s
}

// Catalog describes one available migration for listings
type Catalog struct {
	Command     string
	Example     string
	Idempotency models.Idempotency
}

// Available lists the migrations the tool ships with
func Available() []Catalog {
	entries := []struct {
		command string
		t       Transform
	}{
		{"add-voice <voice>", AddEmptyVoice{Voice: "ride"}},
		{"assign-identity", AssignIdentity{}},
		{"set-field <key> <value>", SetField{Key: models.FieldLengthInBeats, Value: models.DefaultLengthInBeats}},
	}

	out := make([]Catalog, 0, len(entries))
	for _, e := range entries {
		out = append(out, Catalog{
			Command:     e.command,
			Example:     e.t.Description(),
			Idempotency: e.t.Idempotency(),
		})
	}
	return out
}
