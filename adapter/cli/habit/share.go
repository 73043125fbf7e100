package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share [habit-id] [goal-id]",
	Short: "Print a shareable progress record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.ShareProgressHandler != nil }, "Sharing")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		goalID, err := parseID("goal", args[1])
		if err != nil {
			return err
		}

		result, err := app.ShareProgressHandler.Handle(cmd.Context(), commands.ShareProgressCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			GoalID:  goalID,
		})
		if err != nil {
			return fmt.Errorf("failed to share progress: %w", err)
		}

		fmt.Fprintln(out, string(result.JSON))
		return nil
	},
}
