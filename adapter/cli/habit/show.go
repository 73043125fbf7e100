package habit

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/spf13/cobra"
)

var (
	showAllGoals   bool
	showRecentLogs int
)

var showCmd = &cobra.Command{
	Use:   "show [habit-id]",
	Short: "Show a habit with its metrics, goals and recent logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.GetHabitHandler != nil }, "Habit details")
		if !ok {
			return nil
		}

		habitID, err := parseID("habit", args[0])
		if err != nil {
			return err
		}

		detail, err := app.GetHabitHandler.Handle(cmd.Context(), queries.GetHabitQuery{
			HabitID:              habitID,
			UserID:               app.CurrentUserID,
			IncludeArchivedGoals: showAllGoals,
			RecentLogs:           showRecentLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to get habit: %w", err)
		}

		fmt.Fprintf(out, "%s%s%s\n", iconPrefix(detail.Icon), detail.Name, archivedSuffix(detail.IsArchived))
		fmt.Fprintf(out, "  ID:       %s\n", detail.ID)
		fmt.Fprintf(out, "  Schedule: %s\n", detail.Schedule)
		fmt.Fprintf(out, "  Streak:   %d (best: %d)\n", detail.Streak, detail.BestStreak)
		fmt.Fprintf(out, "  Today:    %d logged", detail.LogsToday)
		if detail.IsDueToday {
			fmt.Fprint(out, ", due")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Logs:     %d total\n", detail.TotalLogs)

		if len(detail.Metrics) > 0 {
			fmt.Fprintln(out, "\nMetrics:")
			for _, m := range detail.Metrics {
				fmt.Fprintf(out, "  %-16s %-8s %s\n", m.Name, m.Unit, m.Aggregation)
			}
		}

		if len(detail.Goals) > 0 {
			fmt.Fprintln(out, "\nGoals:")
			for _, g := range detail.Goals {
				state := ""
				switch {
				case g.Archived:
					state = " [archived]"
				case g.Completed:
					state = " [completed]"
				}
				fmt.Fprintf(out, "  %s %s (%s)%s\n", progressBar(g.Progress.Value, 20), g.Name, g.Progress.Display, state)
				fmt.Fprintf(out, "    ID: %s | %s\n", g.ID, g.Kind)
			}
		}

		if len(detail.RecentLogs) > 0 {
			fmt.Fprintln(out, "\nRecent logs:")
			for _, l := range detail.RecentLogs {
				parts := make([]string, 0, len(l.Points))
				for _, p := range l.Points {
					parts = append(parts, fmt.Sprintf("%s=%s", p.Metric, formatNumber(p.Value)))
				}
				line := fmt.Sprintf("  %s %s", l.Day, strings.Join(parts, " "))
				if l.Notes != "" {
					line += " - " + l.Notes
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
				fmt.Fprintf(out, "    ID: %s\n", l.ID)
			}
		}

		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showAllGoals, "all-goals", false, "include archived goals")
	showCmd.Flags().IntVar(&showRecentLogs, "logs", 0, "number of recent logs to show")
}
