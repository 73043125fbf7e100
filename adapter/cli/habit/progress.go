package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress [habit-id] [goal-id]",
	Short: "Show the progress of a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.GetGoalProgressHandler != nil }, "Goal progress")
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

		result, err := app.GetGoalProgressHandler.Handle(cmd.Context(), queries.GetGoalProgressQuery{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			GoalID:  goalID,
		})
		if err != nil {
			return fmt.Errorf("failed to get goal progress: %w", err)
		}

		g := result.Goal
		fmt.Fprintf(out, "%s / %s\n", result.HabitName, g.Name)
		fmt.Fprintf(out, "  %s %d%%\n", progressBar(g.Progress.Value, 30), g.Progress.Percent())
		fmt.Fprintf(out, "  %s\n", g.Progress.Display)
		if g.Completed {
			fmt.Fprintln(out, "  Completed")
		}
		return nil
	},
}
