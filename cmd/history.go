package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stackgen-cli/loop-migrate/internal/diff"
	"github.com/stackgen-cli/loop-migrate/internal/journal"
)

var historyPath string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded migration runs",
	Long: `List migration runs recorded in the journal directory, newest first.

Examples:
  loop-migrate history
  loop-migrate history show 3f2a9c1e
  loop-migrate history show 3f2a9c1e --path voices --format markdown
  loop-migrate history delete 3f2a9c1e`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := journal.NewManager(cfg.JournalDir).List()
		if err != nil {
			color.Red("Error reading journal: %v", err)
			os.Exit(exitUsage)
		}
		if len(entries) == 0 {
			color.Yellow("No runs recorded in %s", cfg.JournalDir)
			return
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			r := e.Report
			status := "ok"
			if r.Failed() {
				status = "aborted"
			}
			rows = append(rows, []string{
				shortID(e.ID),
				e.SavedAt.Local().Format("2006-01-02 15:04:05"),
				r.Migration,
				r.Dir,
				strconv.Itoa(r.Summary.Migrated),
				strconv.Itoa(r.Summary.Records),
				status,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Saved", "Migration", "Directory", "Migrated", "Records", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateFormat(formatFlag); err != nil {
			color.Red("Error: %v", err)
			os.Exit(exitUsage)
		}

		entry, err := journal.NewManager(cfg.JournalDir).Load(args[0])
		if err != nil {
			color.Red("Error: %v", err)
			os.Exit(exitUsage)
		}

		report := entry.Report
		if historyPath != "" {
			report.Summary.Changes = 0
			for i := range report.Files {
				report.Files[i].Changes = diff.FilterByPrefix(report.Files[i].Changes, historyPath)
				report.Summary.Changes += len(report.Files[i].Changes)
			}
		}

		output, err := renderReport(report, formatFlag)
		if err != nil {
			color.Red("Error generating report: %v", err)
			os.Exit(exitUsage)
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Remove a recorded run from the journal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := journal.NewManager(cfg.JournalDir).Delete(args[0]); err != nil {
			color.Red("Error: %v", err)
			os.Exit(exitUsage)
		}
		color.Green("Deleted run '%s'", args[0])
	},
}

func init() {
	historyShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Report format: text, json, markdown")
	historyShowCmd.Flags().StringVar(&historyPath, "path", "", "Only show changes at or below this field path")

	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
