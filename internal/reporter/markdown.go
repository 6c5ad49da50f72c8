package reporter

import (
	"fmt"
	"strings"

	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// ToMarkdown generates a Markdown report suitable for PR descriptions
func ToMarkdown(report *models.RunReport) string {
	var sb strings.Builder

	sb.WriteString("## Loop Migration\n\n")
	sb.WriteString(fmt.Sprintf("**Migration:** `%s` (%s)\n\n", report.Migration, report.Idempotency))
	sb.WriteString(fmt.Sprintf("**Directory:** `%s`\n\n", report.Dir))
	if report.DryRun {
		sb.WriteString("_Dry run: no files were written._\n\n")
	}

	s := report.Summary
	sb.WriteString("### Summary\n\n")
	sb.WriteString("| Metric | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Entries | %d |\n", s.Entries))
	sb.WriteString(fmt.Sprintf("| Records | %d |\n", s.Records))
	sb.WriteString(fmt.Sprintf("| Migrated | %d |\n", s.Migrated))
	sb.WriteString(fmt.Sprintf("| Unchanged | %d |\n", s.Unchanged))
	sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", s.Skipped))
	if s.Failed > 0 {
		sb.WriteString(fmt.Sprintf("| ❌ **Failed** | **%d** |\n", s.Failed))
	}
	sb.WriteString("\n")

	if report.Failed() {
		sb.WriteString(fmt.Sprintf("❌ **Aborted:** `%s`\n\n", report.Error))
	}

	if s.Changes == 0 {
		sb.WriteString("✅ No field changes.\n")
		return sb.String()
	}

	rows := 0
	for _, f := range report.Files {
		rows += len(f.Changes)
	}
	if rows > 20 {
		sb.WriteString(fmt.Sprintf("<details>\n<summary>Changes (%d)</summary>\n\n", rows))
	} else {
		sb.WriteString("### Changes\n\n")
	}

	sb.WriteString("| File | Field | Change |\n")
	sb.WriteString("|------|-------|--------|\n")
	for _, f := range report.Files {
		for _, c := range f.Changes {
			sb.WriteString(fmt.Sprintf("| `%s` | `%s` | %s |\n", f.Name, c.Path, formatChangeDescription(c)))
		}
	}

	if rows > 20 {
		sb.WriteString("\n</details>\n")
	}

	return sb.String()
}

func formatChangeDescription(c models.Change) string {
	switch c.Kind {
	case models.ChangeAdded:
		return fmt.Sprintf("Added: `%s`", truncateValue(c.After))
	case models.ChangeRemoved:
		return fmt.Sprintf("Removed (was: `%s`)", truncateValue(c.Before))
	case models.ChangeModified:
		return fmt.Sprintf("`%s` → `%s`", truncateValue(c.Before), truncateValue(c.After))
	}
	return ""
}

func truncateValue(v interface{}) string {
	return truncate(formatValue(v), 30)
}
