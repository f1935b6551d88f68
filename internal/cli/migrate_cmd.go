package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openStore()
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer database.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
			return nil
		},
	}
}
