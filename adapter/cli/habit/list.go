package habit

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/spf13/cobra"
)

var (
	showArchived   bool
	onlyArchived   bool
	showDueToday   bool
	habitFrequency string
	hasStreak      bool
	brokenStreak   bool
	habitSortBy    string
	habitSortOrder string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long: `List habits with their current status and streaks.

Filter Options:
  --frequency     Filter by frequency (daily, weekly, monthly, every_n_days, specific_weekdays)
  --has-streak    Show only habits with active streaks
  --broken-streak Show only habits with broken streaks

Sort Options:
  --sort          Sort by field (streak, best_streak, name, created_at)
  --order         Sort order (asc, desc)

Examples:
  cadence habit list                     # All active habits
  cadence habit list --due               # Habits due today
  cadence habit list --has-streak        # Habits with active streaks
  cadence habit list --sort streak       # Sort by current streak`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.ListHabitsHandler != nil }, "Habit listing")
		if !ok {
			return nil
		}

		query := queries.ListHabitsQuery{
			UserID:          app.CurrentUserID,
			IncludeArchived: showArchived,
			OnlyArchived:    onlyArchived,
			OnlyDueToday:    showDueToday,
			Frequency:       habitFrequency,
			HasStreak:       hasStreak,
			BrokenStreak:    brokenStreak,
			SortBy:          habitSortBy,
			SortOrder:       habitSortOrder,
		}

		habits, err := app.ListHabitsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list habits: %w", err)
		}

		if len(habits) == 0 {
			switch {
			case showDueToday:
				fmt.Fprintln(out, "No habits due today.")
			case onlyArchived:
				fmt.Fprintln(out, "No archived habits.")
			case hasStreak:
				fmt.Fprintln(out, "No habits with active streaks.")
			case brokenStreak:
				fmt.Fprintln(out, "No habits with broken streaks.")
			default:
				fmt.Fprintln(out, "No habits found. Create one with: cadence habit create \"Habit name\"")
			}
			return nil
		}

		fmt.Fprintf(out, "Habits (%d):\n", len(habits))
		fmt.Fprintln(out, strings.Repeat("-", 70))

		for _, h := range habits {
			fmt.Fprintf(out, "%s %s%s (%s)%s%s\n",
				statusMark(h),
				iconPrefix(h.Icon),
				h.Name,
				h.Schedule,
				streakSummary(h),
				archivedSuffix(h.IsArchived),
			)
			fmt.Fprintf(out, "    ID: %s", h.ID)
			if h.ActiveGoals > 0 {
				fmt.Fprintf(out, " | goals: %d", h.ActiveGoals)
			}
			fmt.Fprintln(out)
		}

		return nil
	},
}

func statusMark(h queries.HabitDTO) string {
	switch {
	case h.LoggedToday:
		return "[x]"
	case h.IsDueToday:
		return "[ ]"
	default:
		return "[-]"
	}
}

func streakSummary(h queries.HabitDTO) string {
	switch {
	case h.Streak > 0 && h.BestStreak > h.Streak:
		return fmt.Sprintf(" | streak: %d (best: %d)", h.Streak, h.BestStreak)
	case h.Streak > 0:
		return fmt.Sprintf(" | streak: %d", h.Streak)
	case h.BestStreak > 0:
		return fmt.Sprintf(" | best: %d (broken)", h.BestStreak)
	default:
		return ""
	}
}

func iconPrefix(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}

func archivedSuffix(archived bool) string {
	if archived {
		return " [archived]"
	}
	return ""
}

func init() {
	listCmd.Flags().BoolVarP(&showArchived, "all", "a", false, "include archived habits")
	listCmd.Flags().BoolVar(&onlyArchived, "archived", false, "show only archived habits")
	listCmd.Flags().BoolVarP(&showDueToday, "due", "d", false, "show only habits due today")
	listCmd.Flags().StringVarP(&habitFrequency, "frequency", "f", "", "filter by frequency")
	listCmd.Flags().BoolVar(&hasStreak, "has-streak", false, "show only habits with active streaks")
	listCmd.Flags().BoolVar(&brokenStreak, "broken-streak", false, "show only habits with broken streaks")
	listCmd.Flags().StringVar(&habitSortBy, "sort", "", "sort by: streak, best_streak, name, created_at")
	listCmd.Flags().StringVar(&habitSortOrder, "order", "asc", "sort order: asc, desc")
}
