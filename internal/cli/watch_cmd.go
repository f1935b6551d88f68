package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"donetasker/internal/stopwatch"
)

func newWatchCmd(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Show a live clock for a task's running timer",
		Long: `watch follows the open work session of a task and redraws its elapsed
time every tick. Press s to stop the timer, q to quit and leave it running.
When stdout is not a terminal a single status line is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer database.Close()

			services := a.services(database)
			user, apiErr := services.Auth.UserByEmail(ctx, email)
			if apiErr != nil {
				return apiErr
			}
			task, apiErr := services.Tasks.Get(ctx, user.ID, args[0])
			if apiErr != nil {
				return apiErr
			}

			if !a.interactive() {
				fmt.Fprintln(cmd.OutOrStdout(), statusLine(*task, a.clock().Now()))
				return nil
			}

			clock := a.clock()
			m := newWatchModel(ctx, services.Timer, user.ID, *task, func(onFrame func(stopwatch.Frame)) *stopwatch.Display {
				return stopwatch.NewDisplay(clock, a.Config.TickInterval, onFrame)
			})
			defer m.display.Close()

			program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run watch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the account that owns or is assigned the task")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
