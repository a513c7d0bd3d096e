package differ

import "sort"

// ChangeType represents the type of change to a single key.
type ChangeType string

const (
	Added   ChangeType = "added"   // Key in new but not old
	Removed ChangeType = "removed" // Key in old but not new
	Changed ChangeType = "changed" // Key in both with different values
)

// KeyChange represents a single key's change.
type KeyChange struct {
	Key      string     `json:"key"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"oldValue,omitempty"`
	NewValue string     `json:"newValue,omitempty"`
}

// Report contains the full comparison of two property maps.
type Report struct {
	HasChanges bool        `json:"hasChanges"`
	Old        string      `json:"old"`
	New        string      `json:"new"`
	Changes    []KeyChange `json:"changes"`
}

// Compare classifies every key of oldValues and newValues as added, removed or changed.
// Changes are sorted by key. oldName and newName label the two sides in
// reports.
func Compare(oldName string, oldValues map[string]string, newName string, newValues map[string]string) Report {
	report := Report{
		Old:     oldName,
		New:     newName,
		Changes: []KeyChange{},
	}

	// Collect all keys from both sides
	allKeys := make(map[string]bool)
	for k := range oldValues {
		allKeys[k] = true
	}
	for k := range newValues {
		allKeys[k] = true
	}

	keys := make([]string, 0, len(allKeys))
	for k := range allKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		oldVal, inOld := oldValues[key]
		newVal, inNew := newValues[key]

		switch {
		case inOld && !inNew:
			report.Changes = append(report.Changes, KeyChange{
				Key:      key,
				Type:     Removed,
				OldValue: oldVal,
			})
		case !inOld && inNew:
			report.Changes = append(report.Changes, KeyChange{
				Key:      key,
				Type:     Added,
				NewValue: newVal,
			})
		case oldVal != newVal:
			report.Changes = append(report.Changes, KeyChange{
				Key:      key,
				Type:     Changed,
				OldValue: oldVal,
				NewValue: newVal,
			})
		}
	}

	report.HasChanges = len(report.Changes) > 0
	return report
}
