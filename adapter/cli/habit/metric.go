package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Manage the metrics a habit records",
}

var metricAddCmd = &cobra.Command{
	Use:   "add [habit-id] [name:unit[:sum|max]]",
	Short: "Define a metric on a habit",
	Long: `Define a metric on a habit. Names are unique ignoring case; remove a
metric first to change its unit or kind.

Examples:
  cadence habit metric add <id> distance:km
  cadence habit metric add <id> weight:kg:max`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.DefineMetricHandler != nil }, "Metric definition")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}
		specs, err := parseMetricSpecs(args[1:])
		if err != nil {
			return err
		}

		if err := app.DefineMetricHandler.Handle(cmd.Context(), commands.DefineMetricCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			Metric:  specs[0],
		}); err != nil {
			return fmt.Errorf("failed to define metric: %w", err)
		}

		fmt.Fprintf(out, "Defined metric %s\n", specs[0].Name)
		return nil
	},
}

var metricRemoveCmd = &cobra.Command{
	Use:   "remove [habit-id] [name]",
	Short: "Remove a metric from a habit",
	Long:  `Remove a metric definition. Logged values are kept and the metric can be defined again.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.RemoveMetricHandler != nil }, "Metric removal")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}

		if err := app.RemoveMetricHandler.Handle(cmd.Context(), commands.RemoveMetricCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
			Name:    args[1],
		}); err != nil {
			return fmt.Errorf("failed to remove metric: %w", err)
		}

		fmt.Fprintf(out, "Removed metric %s\n", args[1])
		return nil
	},
}

func init() {
	metricCmd.AddCommand(metricAddCmd)
	metricCmd.AddCommand(metricRemoveCmd)
}
