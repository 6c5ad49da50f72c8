package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackgen-cli/loop-migrate/internal/migrate"
)

var migrationsCmd = &cobra.Command{
	Use:   "migrations",
	Short: "List available migrations and whether they are idempotent",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		list := migrate.Available()
		rows := make([][]string, 0, len(list))
		for _, m := range list {
			rows = append(rows, []string{m.Command, m.Example, string(m.Idempotency)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Command", "Example", "Re-run"}, rows, nil))
	},
}

func init() {
	rootCmd.AddCommand(migrationsCmd)
}
