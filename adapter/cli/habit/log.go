package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var (
	logDay    string
	logNotes  string
	logPoints []string
)

var logCmd = &cobra.Command{
	Use:   "log [habit-id]",
	Short: "Log an activity for a habit",
	Long: `Log an activity, optionally with metric values.

Examples:
  cadence habit log <id>
  cadence habit log <id> -p distance=5.2 -p duration=31
  cadence habit log <id> --day 2026-10-01 --notes "felt great"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.LogActivityHandler != nil }, "Habit logging")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		day, err := parseDay("day", logDay)
		if err != nil {
			return err
		}
		points, err := parsePoints(logPoints)
		if err != nil {
			return err
		}

		result, err := app.LogActivityHandler.Handle(cmd.Context(), commands.LogActivityCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			Day:     day,
			Notes:   logNotes,
			Points:  points,
		})
		if err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}

		fmt.Fprintf(out, "Logged activity for %s", result.Day)
		if result.LogsOnDay > 1 {
			fmt.Fprintf(out, " (%d logs that day)", result.LogsOnDay)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Log ID: %s\n", result.LogID)
		fmt.Fprintf(out, "  Current streak: %d\n", result.CurrentStreak)

		for _, u := range result.Celebrations() {
			if u.Completed {
				fmt.Fprintf(out, "  Goal completed: %s\n", u.GoalName)
				continue
			}
			for _, m := range u.Milestones {
				fmt.Fprintf(out, "  %s reached %s\n", u.GoalName, m)
			}
		}

		return nil
	},
}

var unlogCmd = &cobra.Command{
	Use:   "unlog [habit-id] [log-id]",
	Short: "Delete an activity log",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.DeleteLogHandler != nil }, "Log deletion")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		logID, err := parseID("log", args[1])
		if err != nil {
			return err
		}

		if err := app.DeleteLogHandler.Handle(cmd.Context(), commands.DeleteLogCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			LogID:   logID,
		}); err != nil {
			return fmt.Errorf("failed to delete log: %w", err)
		}

		fmt.Fprintf(out, "Deleted log %s\n", logID)
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logDay, "day", "", "day to log (YYYY-MM-DD, default today)")
	logCmd.Flags().StringVarP(&logNotes, "notes", "n", "", "notes for this log")
	logCmd.Flags().StringArrayVarP(&logPoints, "point", "p", nil, "metric value as name=value (repeatable)")
}
