package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var (
	goalName       string
	goalMetric     string
	goalTarget     float64
	goalBy         string
	goalDifficulty string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage habit goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add [habit-id] [kind]",
	Short: "Add a goal to a habit",
	Long: `Add a goal to a habit.

Kinds:
  target_value  - Reach a cumulative total (use --metric and --target)
  deadline      - Count down to a day (use --by)
  consistency   - Keep a rolling score (use --difficulty easy|medium|hard,
                  optionally --metric and --target as a per-day threshold)

Examples:
  cadence habit goal add <id> target_value --metric distance --target 100
  cadence habit goal add <id> deadline --by 2026-12-31 --name "Marathon"
  cadence habit goal add <id> consistency --difficulty hard`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.AddGoalHandler != nil }, "Goal creation")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		by, err := parseDay("by", goalBy)
		if err != nil {
			return err
		}

		result, err := app.AddGoalHandler.Handle(cmd.Context(), commands.AddGoalCommand{
			HabitID:    habitID,
			UserID:     app.CurrentUserID,
			Kind:       args[1],
			Name:       goalName,
			Metric:     goalMetric,
			Target:     goalTarget,
			TargetDay:  by,
			Difficulty: goalDifficulty,
		})
		if err != nil {
			return fmt.Errorf("failed to add goal: %w", err)
		}

		fmt.Fprintf(out, "Added %s goal\n", args[1])
		fmt.Fprintf(out, "  ID: %s\n", result.GoalID)
		if result.Completed {
			fmt.Fprintln(out, "  Already completed")
		}
		return nil
	},
}

var goalArchiveCmd = &cobra.Command{
	Use:   "archive [habit-id] [goal-id]",
	Short: "Archive a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.ArchiveGoalHandler != nil }, "Goal archiving")
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

		if err := app.ArchiveGoalHandler.Handle(cmd.Context(), commands.ArchiveGoalCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			GoalID:  goalID,
		}); err != nil {
			return fmt.Errorf("failed to archive goal: %w", err)
		}

		fmt.Fprintf(out, "Archived goal %s\n", goalID)
		return nil
	},
}

func init() {
	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalArchiveCmd)

	goalAddCmd.Flags().StringVar(&goalName, "name", "", "goal name")
	goalAddCmd.Flags().StringVar(&goalMetric, "metric", "", "metric the goal reads")
	goalAddCmd.Flags().Float64Var(&goalTarget, "target", 0, "target total, or per-day threshold for consistency goals")
	goalAddCmd.Flags().StringVar(&goalBy, "by", "", "target day for deadline goals (YYYY-MM-DD)")
	goalAddCmd.Flags().StringVar(&goalDifficulty, "difficulty", "medium", "consistency difficulty: easy, medium, hard")
}
