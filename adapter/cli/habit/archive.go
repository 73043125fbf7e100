package habit

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var confirmDelete bool

var archiveCmd = &cobra.Command{
	Use:   "archive [habit-id]",
	Short: "Archive a habit",
	Long:  `Archive a habit. It stops appearing in lists and its streak is no longer watched.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.ArchiveHabitHandler != nil }, "Habit archiving")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}

		if err := app.ArchiveHabitHandler.Handle(cmd.Context(), commands.ArchiveHabitCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
		}); err != nil {
			return fmt.Errorf("failed to archive habit: %w", err)
		}

		fmt.Fprintf(out, "Archived habit %s\n", habitID)
		return nil
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive [habit-id]",
	Short: "Restore an archived habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.UnarchiveHabitHandler != nil }, "Habit restore")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}

		if err := app.UnarchiveHabitHandler.Handle(cmd.Context(), commands.ArchiveHabitCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
		}); err != nil {
			return fmt.Errorf("failed to restore habit: %w", err)
		}

		fmt.Fprintf(out, "Restored habit %s\n", habitID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [habit-id]",
	Short: "Delete a habit with its goals and logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.DeleteHabitHandler != nil }, "Habit deletion")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}

		if !confirmDelete {
			fmt.Fprintln(out, "Deleting removes all goals and logs. Re-run with --yes to confirm.")
			return nil
		}

		if err := app.DeleteHabitHandler.Handle(cmd.Context(), commands.DeleteHabitCommand{
			HabitID: habitID,
			UserID:  app.CurrentUserID,
		}); err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}

		fmt.Fprintf(out, "Deleted habit %s\n", habitID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&confirmDelete, "yes", "y", false, "confirm deletion")
}
