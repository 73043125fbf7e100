package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/spf13/cobra"
)

var (
	reviewStart string
	reviewEnd   string
)

var reviewCmd = &cobra.Command{
	Use:   "review [habit-id]",
	Short: "Summarize a habit over a period",
	Long: `Summarize a habit over a period. Defaults to the last week.

Examples:
  cadence habit review <id>
  cadence habit review <id> --start 2026-09-01 --end 2026-09-30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.GetPeriodReviewHandler != nil }, "Period review")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		start, err := parseDay("start", reviewStart)
		if err != nil {
			return err
		}
		end, err := parseDay("end", reviewEnd)
		if err != nil {
			return err
		}

		review, err := app.GetPeriodReviewHandler.Handle(cmd.Context(), queries.GetPeriodReviewQuery{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			Start:   start,
			End:     end,
		})
		if err != nil {
			return fmt.Errorf("failed to review habit: %w", err)
		}

		fmt.Fprintf(out, "%s: %s to %s\n", review.HabitName, review.Start, review.End)
		fmt.Fprintf(out, "  Met %d of %d due days (%.0f%%)\n", review.MetDays, review.DueDays, review.CompletionRate*100)
		fmt.Fprintf(out, "  Logs: %d | longest streak: %d\n", review.TotalLogs, review.LongestStreak)
		for _, m := range review.Metrics {
			fmt.Fprintf(out, "  %-16s %s %s (%s over %d days)\n", m.Name, formatNumber(m.Value), m.Unit, m.Aggregation, m.ActiveDays)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewStart, "start", "", "first day (YYYY-MM-DD)")
	reviewCmd.Flags().StringVar(&reviewEnd, "end", "", "last day (YYYY-MM-DD, default today)")
}
