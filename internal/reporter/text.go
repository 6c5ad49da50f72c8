package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// ToText generates a human-readable text report
func ToText(report *models.RunReport) string {
	var sb strings.Builder

	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	sb.WriteString(cyan("loop-migrate\n\n"))
	sb.WriteString(fmt.Sprintf("Migration: %s (%s)\n", report.Migration, idempotencyLabel(report.Idempotency)))
	sb.WriteString(fmt.Sprintf("Directory: %s\n", report.Dir))
	if report.DryRun {
		sb.WriteString(yellow("Dry run: no files were written\n"))
	}
	sb.WriteString("\n")

	s := report.Summary
	sb.WriteString(fmt.Sprintf("Summary: %d entries, %d records\n", s.Entries, s.Records))
	sb.WriteString(fmt.Sprintf("         %s, %d unchanged, %d skipped, %s\n\n",
		green(fmt.Sprintf("%d migrated", s.Migrated)),
		s.Unchanged,
		s.Skipped,
		red(fmt.Sprintf("%d failed", s.Failed))))

	if len(report.Files) > 0 {
		sb.WriteString(strings.Repeat("━", 50) + "\n\n")
	}

	for _, f := range report.Files {
		sb.WriteString(fmt.Sprintf("%s %s\n", statusIcon(f.Status), cyan(f.Name)))
		for _, c := range f.Changes {
			switch c.Kind {
			case models.ChangeAdded:
				sb.WriteString(fmt.Sprintf("    + %s = %s\n", c.Path, formatValue(c.After)))
			case models.ChangeRemoved:
				sb.WriteString(fmt.Sprintf("    - %s removed\n", c.Path))
			case models.ChangeModified:
				sb.WriteString(fmt.Sprintf("    ~ %s changed: %s → %s\n", c.Path, formatValue(c.Before), formatValue(c.After)))
			}
		}
		if f.Error != "" {
			line := fmt.Sprintf("    %s\n", f.Error)
			if f.Status == models.FileFailed {
				line = red(line)
			}
			sb.WriteString(line)
		}
	}

	if report.Failed() {
		sb.WriteString("\n" + red("Aborted: "+report.Error) + "\n")
		sb.WriteString("Files after the failure were not processed.\n")
	} else if s.Records == 0 {
		sb.WriteString(yellow("No loop records found.\n"))
	}

	return sb.String()
}

func statusIcon(s models.FileStatus) string {
	switch s {
	case models.FileMigrated:
		return color.New(color.FgGreen).Sprint("✔")
	case models.FileUnchanged:
		return "="
	case models.FileSkipped:
		return color.New(color.FgYellow).Sprint("↷")
	case models.FileFailed:
		return color.New(color.FgRed).Sprint("✘")
	}
	return "•"
}

func idempotencyLabel(i models.Idempotency) string {
	if i == models.NonIdempotent {
		return color.New(color.FgYellow).Sprint(string(i))
	}
	return string(i)
}

// formatValue renders a record value as compact JSON, truncated for display
func formatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	s := string(b)
	if err != nil {
		s = fmt.Sprintf("%v", v)
	}
	return truncate(s, 50)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
