package differ

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Counts returns the number of added, removed and changed keys.
func (r Report) Counts() (added, removed, changed int) {
	for _, c := range r.Changes {
		switch c.Type {
		case Added:
			added++
		case Removed:
			removed++
		case Changed:
			changed++
		}
	}
	return added, removed, changed
}

// FormatCLI renders the report as a unified diff of the two property files,
// one "key = value" line per side.
func FormatCLI(report Report) string {
	if !report.HasChanges {
		return fmt.Sprintf("No differences between %s and %s\n", report.Old, report.New)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", report.Old, report.New)
	for _, c := range report.Changes {
		if c.Type != Added {
			fmt.Fprintf(&sb, "-%s = %s\n", c.Key, c.OldValue)
		}
		if c.Type != Removed {
			fmt.Fprintf(&sb, "+%s = %s\n", c.Key, c.NewValue)
		}
	}

	added, removed, changed := report.Counts()
	fmt.Fprintf(&sb, "\n%d added, %d removed, %d changed\n", added, removed, changed)
	return sb.String()
}

// FormatCI renders one GitHub Actions notice per key, attached to the newer
// property file.
func FormatCI(report Report) string {
	var sb strings.Builder
	for _, c := range report.Changes {
		var msg string
		switch c.Type {
		case Added:
			msg = c.Key + " = " + c.NewValue
		case Removed:
			msg = c.Key + " (was " + c.OldValue + ")"
		case Changed:
			msg = c.Key + " = " + c.NewValue + " (was " + c.OldValue + ")"
		}
		fmt.Fprintf(&sb, "::notice file=%s,title=property %s::%s\n", report.New, c.Type, escapeAnnotation(msg))
	}
	return sb.String()
}

// escapeAnnotation encodes the characters that end a workflow command message.
func escapeAnnotation(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// FormatJSON formats the report as JSON.
func FormatJSON(report Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
