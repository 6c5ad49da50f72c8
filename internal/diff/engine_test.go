package diff

import (
	"testing"

	"github.com/stackgen-cli/loop-migrate/internal/loopfile"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

func mustParse(t *testing.T, s string) *loopfile.Object {
	t.Helper()
	obj, err := loopfile.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", s, err)
	}
	return obj
}

func TestCompareNestedVoiceAdded(t *testing.T) {
	old := mustParse(t, `{"bpm": 120, "voices": {"hat": [0, 0.5]}}`)
	new := mustParse(t, `{"bpm": 120, "voices": {"hat": [0, 0.5], "crash": []}}`)

	changes := Compare(old, new)

	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %d: %+v", len(changes), changes)
	}
	c := changes[0]
	if c.Kind != models.ChangeAdded {
		t.Errorf("Expected kind added, got %s", c.Kind)
	}
	if c.Path != "voices.crash" {
		t.Errorf("Expected path voices.crash, got %s", c.Path)
	}
	if c.Before != nil {
		t.Errorf("Expected nil before, got %v", c.Before)
	}
}

func TestCompareModifiedAndRemoved(t *testing.T) {
	old := mustParse(t, `{"length_in_beats": 8, "legacy": true, "name": "samba"}`)
	new := mustParse(t, `{"length_in_beats": 16, "name": "samba"}`)

	changes := Compare(old, new)

	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d: %+v", len(changes), changes)
	}

	byPath := make(map[string]models.Change)
	for _, c := range changes {
		byPath[c.Path] = c
	}

	mod, ok := byPath["length_in_beats"]
	if !ok {
		t.Fatal("Expected length_in_beats change")
	}
	if mod.Kind != models.ChangeModified {
		t.Errorf("Expected modified, got %s", mod.Kind)
	}

	rem, ok := byPath["legacy"]
	if !ok {
		t.Fatal("Expected legacy change")
	}
	if rem.Kind != models.ChangeRemoved {
		t.Errorf("Expected removed, got %s", rem.Kind)
	}
}

func TestCompareIdentical(t *testing.T) {
	doc := `{"bpm": 90, "voices": {"kick": [0, 1, 2.5], "ride": []}, "length_in_beats": 16}`
	changes := Compare(mustParse(t, doc), mustParse(t, doc))
	if len(changes) != 0 {
		t.Errorf("Expected no changes, got %+v", changes)
	}
}

func TestCompareTypeChange(t *testing.T) {
	old := mustParse(t, `{"voices": []}`)
	new := mustParse(t, `{"voices": {}}`)

	changes := Compare(old, new)
	if len(changes) != 1 || changes[0].Kind != models.ChangeModified {
		t.Errorf("Expected one modified change, got %+v", changes)
	}
}

func TestFilterByPrefix(t *testing.T) {
	changes := []models.Change{
		{Kind: models.ChangeAdded, Path: "voices.ride"},
		{Kind: models.ChangeAdded, Path: "voices_extra"},
		{Kind: models.ChangeModified, Path: "voices"},
		{Kind: models.ChangeAdded, Path: "id"},
	}

	tests := []struct {
		prefix   string
		expected int
	}{
		{"", 4},
		{"voices", 2},
		{"voices.ride", 1},
		{"id", 1},
		{"name", 0},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			result := FilterByPrefix(changes, tt.prefix)
			if len(result) != tt.expected {
				t.Errorf("FilterByPrefix(%q) returned %d changes, want %d", tt.prefix, len(result), tt.expected)
			}
		})
	}
}
