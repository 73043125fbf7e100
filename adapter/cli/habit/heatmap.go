package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	heatmapFrom   string
	heatmapTo     string
	heatmapGoal   string
	heatmapMetric string
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap [habit-id]",
	Short: "Show a completion heatmap",
	Long: `Show which days met the habit, one column per week.

Use --goal to count a day only when it meets that goal's per-day threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.GetHeatmapHandler != nil }, "Heatmap")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		from, err := parseDay("from", heatmapFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", heatmapTo)
		if err != nil {
			return err
		}
		var goalID uuid.UUID
		if heatmapGoal != "" {
			if goalID, err = parseID("goal", heatmapGoal); err != nil {
				return err
			}
		}

		grid, err := app.GetHeatmapHandler.Handle(cmd.Context(), queries.GetHeatmapQuery{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			From:    from,
			To:      to,
			GoalID:  goalID,
			Metric:  heatmapMetric,
		})
		if err != nil {
			return fmt.Errorf("failed to build heatmap: %w", err)
		}

		fmt.Fprintf(out, "%s (%s to %s)\n", grid.HabitName, grid.From, grid.To)
		fmt.Fprint(out, renderHeatmap(grid))
		return nil
	},
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapFrom, "from", "", "first day (YYYY-MM-DD)")
	heatmapCmd.Flags().StringVar(&heatmapTo, "to", "", "last day (YYYY-MM-DD, default today)")
	heatmapCmd.Flags().StringVar(&heatmapGoal, "goal", "", "goal whose threshold gates met days")
	heatmapCmd.Flags().StringVar(&heatmapMetric, "metric", "", "metric shown as intensity")
}
