package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stackgen-cli/loop-migrate/internal/journal"
	"github.com/stackgen-cli/loop-migrate/internal/migrate"
	"github.com/stackgen-cli/loop-migrate/internal/models"
	"github.com/stackgen-cli/loop-migrate/internal/reporter"
)

// Exit codes
const (
	exitAborted = 1
	exitUsage   = 2
)

var (
	dryRun       bool
	atomicWrites bool
	formatFlag   string
	noJournal    bool
)

var addVoiceCmd = &cobra.Command{
	Use:   "add-voice <voice>",
	Short: "Add an empty voice to every loop record",
	Long: `Set voices.<voice> = [] in every loop record. Records without a voices
object abort the run. Idempotent: running it twice gives the same files.

Examples:
  loop-migrate add-voice ride
  loop-migrate add-voice crash --dir ./res/loops
  loop-migrate add-voice crash --dry-run --format markdown`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		voice := strings.TrimSpace(args[0])
		if voice == "" {
			color.Red("Error: voice name must not be empty")
			os.Exit(exitUsage)
		}
		execMigration(cmd, migrate.AddEmptyVoice{Voice: voice})
	},
}

var assignIdentityCmd = &cobra.Command{
	Use:   "assign-identity",
	Short: "Give every loop record a new id and a name from its file name",
	Long: `Set id to a fresh random UUID and name to the file name up to the first
".json" in every loop record.

Not idempotent: every run replaces previously assigned ids.

Examples:
  loop-migrate assign-identity
  loop-migrate assign-identity --dir ./res/loops --dry-run`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execMigration(cmd, migrate.AssignIdentity{})
	},
}

var setFieldCmd = &cobra.Command{
	Use:   "set-field <key> <value>",
	Short: "Set a top-level field to a constant in every loop record",
	Long: `Set <key> to <value> in every loop record, replacing any existing value.
The value is read as JSON when it parses (16, true, "text", [1,2]) and as a
plain string otherwise. Idempotent.

Examples:
  loop-migrate set-field length_in_beats 16
  loop-migrate set-field bpm 120 --dir ./res/loops`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := strings.TrimSpace(args[0])
		if key == "" {
			color.Red("Error: field name must not be empty")
			os.Exit(exitUsage)
		}
		execMigration(cmd, migrate.SetField{Key: key, Value: migrate.ParseValue(args[1])})
	},
}

func init() {
	for _, c := range []*cobra.Command{addVoiceCmd, assignIdentityCmd, setFieldCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing files")
		c.Flags().BoolVar(&atomicWrites, "atomic", true, "Replace files via temp file + rename (default from config)")
		c.Flags().StringVarP(&formatFlag, "format", "f", "text", "Report format: text, json, markdown")
		c.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record this run in the journal")
		rootCmd.AddCommand(c)
	}
}

// execMigration runs t, prints the report and exits non-zero on failure
func execMigration(cmd *cobra.Command, t migrate.Transform) {
	if err := validateFormat(formatFlag); err != nil {
		color.Red("Error: %v", err)
		os.Exit(exitUsage)
	}

	// Keep stdout clean for machine-readable reports
	trace := cmd.OutOrStdout()
	if formatFlag != "text" {
		trace = cmd.ErrOrStderr()
	}

	report, err := runMigration(cmd.Context(), cmd, t, trace)
	if report != nil {
		output, ferr := renderReport(report, formatFlag)
		if ferr != nil {
			color.Red("Error generating report: %v", ferr)
			os.Exit(exitUsage)
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}

	if err != nil {
		color.Red("Error: %v", err)
		if report != nil && report.Summary.Migrated > 0 && !report.DryRun {
			color.Yellow("%d file(s) were migrated before the failure; re-run after fixing the cause.", report.Summary.Migrated)
		}
		os.Exit(exitAborted)
	}
}

// runMigration builds the migrator from the loaded config and runs it
func runMigration(ctx context.Context, cmd *cobra.Command, t migrate.Transform, trace io.Writer) (*models.RunReport, error) {
	atomic := cfg.AtomicWrites()
	if cmd.Flags().Changed("atomic") {
		atomic = atomicWrites
	}

	matcher, err := cfg.Matcher()
	if err != nil {
		return nil, err
	}

	m, err := migrate.New(cfg.Dir, t, migrate.Options{
		DryRun: dryRun,
		Atomic: atomic,
		Ignore: matcher,
		Out:    trace,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	report, runErr := m.Run(ctx)

	if !dryRun && !noJournal && !errors.Is(runErr, migrate.ErrLocked) {
		entry, err := journal.NewManager(cfg.JournalDir).Save(report, map[string]string{
			"tool_version": version,
		})
		if err != nil {
			logger.Warn("failed to record run in journal", "dir", cfg.JournalDir, "error", err)
		} else {
			logger.Info("run recorded", "id", entry.ID, "journal", cfg.JournalDir)
		}
	}

	return report, runErr
}

func validateFormat(format string) error {
	switch format {
	case "text", "json", "markdown":
		return nil
	}
	return fmt.Errorf("unsupported format %q (want text, json or markdown)", format)
}

func renderReport(report *models.RunReport, format string) (string, error) {
	switch format {
	case "json":
		data, err := reporter.MarshalReport(report)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "markdown":
		return reporter.ToMarkdown(report), nil
	default:
		return reporter.ToText(report), nil
	}
}
