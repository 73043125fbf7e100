package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/spf13/cobra"
)

var trendPoints int

var trendCmd = &cobra.Command{
	Use:   "trend [habit-id] [goal-id]",
	Short: "Show the consistency score trend of a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.GetConsistencyTrendHandler != nil }, "Consistency trend")
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

		trend, err := app.GetConsistencyTrendHandler.Handle(cmd.Context(), queries.GetConsistencyTrendQuery{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			GoalID:  goalID,
			Points:  trendPoints,
		})
		if err != nil {
			return fmt.Errorf("failed to get trend: %w", err)
		}

		fmt.Fprintf(out, "%s (%s)\n", trend.GoalName, trend.Difficulty)
		fmt.Fprintf(out, "  %s\n", sparkline(trend.Points, trend.Ceiling))
		fmt.Fprintf(out, "  score %d of %d\n", trend.Current, trend.Ceiling)
		return nil
	},
}

func init() {
	trendCmd.Flags().IntVar(&trendPoints, "points", 0, "number of days in the trend")
}
