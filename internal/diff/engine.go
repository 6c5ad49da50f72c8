package diff

import (
	"encoding/json"
	"reflect"

	"github.com/stackgen-cli/loop-migrate/internal/loopfile"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// Compare compares a record before and after a migration and returns the field changes
func Compare(old, new *loopfile.Object) []models.Change {
	changes := make([]models.Change, 0)
	compareObjects("", old, new, &changes)
	return changes
}

// compareObjects walks both objects, recursing into nested objects present on both sides
func compareObjects(basePath string, old, new *loopfile.Object, changes *[]models.Change) {
	added, removed, common := diffSets(old.Keys(), new.Keys())
	commonSet := make(map[string]bool, len(common))
	for _, k := range common {
		commonSet[k] = true
	}
	addedSet := make(map[string]bool, len(added))
	for _, k := range added {
		addedSet[k] = true
	}

	// Walk in the new document's order so nested and top-level changes read naturally
	for _, key := range new.Keys() {
		path := joinPath(basePath, key)
		newVal, _ := new.Get(key)

		if addedSet[key] {
			*changes = append(*changes, models.Change{
				Kind:   models.ChangeAdded,
				Path:   path,
				Before: nil,
				After:  newVal,
			})
			continue
		}
		if !commonSet[key] {
			continue
		}

		oldVal, _ := old.Get(key)
		oldObj, oldIsObj := oldVal.(*loopfile.Object)
		newObj, newIsObj := newVal.(*loopfile.Object)
		if oldIsObj && newIsObj {
			compareObjects(path, oldObj, newObj, changes)
			continue
		}

		if !valuesEqual(oldVal, newVal) {
			*changes = append(*changes, models.Change{
				Kind:   models.ChangeModified,
				Path:   path,
				Before: oldVal,
				After:  newVal,
			})
		}
	}

	for _, key := range removed {
		oldVal, _ := old.Get(key)
		*changes = append(*changes, models.Change{
			Kind:   models.ChangeRemoved,
			Path:   joinPath(basePath, key),
			Before: oldVal,
			After:  nil,
		})
	}
}

// FilterByPrefix keeps only changes at or below the given path
func FilterByPrefix(changes []models.Change, prefix string) []models.Change {
	if prefix == "" {
		return changes
	}
	filtered := make([]models.Change, 0, len(changes))
	for _, c := range changes {
		if c.Path == prefix || (len(c.Path) > len(prefix) && c.Path[:len(prefix)] == prefix && c.Path[len(prefix)] == '.') {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Helper functions

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// diffSets splits two key lists, keeping the order each key was seen in
func diffSets(old, new []string) (added, removed, common []string) {
	oldSet := make(map[string]bool, len(old))
	newSet := make(map[string]bool, len(new))

	for _, s := range old {
		oldSet[s] = true
	}
	for _, s := range new {
		newSet[s] = true
	}

	for _, s := range new {
		if !oldSet[s] {
			added = append(added, s)
		}
	}
	for _, s := range old {
		if !newSet[s] {
			removed = append(removed, s)
		} else {
			common = append(common, s)
		}
	}
	return
}

// valuesEqual compares two decoded JSON values by their encoded form, so
// nested objects compare by content and numbers by literal text
func valuesEqual(a, b interface{}) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return string(ab) == string(bb)
}
