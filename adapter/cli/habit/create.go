package habit

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/spf13/cobra"
)

var (
	frequency   string
	interval    int
	weekdays    string
	dailyTarget int
	icon        string
	color       string
	metricSpecs []string
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new habit",
	Long: `Create a new habit to track.

Frequencies:
  daily              - Every day
  weekly             - Same weekday as the habit was created
  monthly            - Same day of the month (clamped to month end)
  every_n_days       - Every N days (use --interval)
  specific_weekdays  - Chosen weekdays (use --weekdays mon,wed,fri)

Metrics are given as name:unit[:sum|max]. Without a kind, names that
mention weight or mass keep the day's maximum, everything else sums.

Examples:
  cadence habit create "Meditate"
  cadence habit create "Run" -m distance:km -m duration:min
  cadence habit create "Gym" -f specific_weekdays --weekdays mon,thu -m weight:kg
  cadence habit create "Water plants" -f every_n_days --interval 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app, ok := requireApp(out, func(a *cli.App) bool { return a.CreateHabitHandler != nil }, "Habit creation")
		if !ok {
			return nil
		}

		metrics, err := parseMetricSpecs(metricSpecs)
		if err != nil {
			return err
		}

		createCmd := commands.CreateHabitCommand{
			UserID:      app.CurrentUserID,
			Name:        args[0],
			Icon:        icon,
			Color:       color,
			Frequency:   frequency,
			Interval:    interval,
			Weekdays:    weekdays,
			DailyTarget: dailyTarget,
			Metrics:     metrics,
		}

		result, err := app.CreateHabitHandler.Handle(cmd.Context(), createCmd)
		if err != nil {
			return fmt.Errorf("failed to create habit: %w", err)
		}

		fmt.Fprintf(out, "Created habit: %s\n", args[0])
		fmt.Fprintf(out, "  ID: %s\n", result.HabitID)
		fmt.Fprintf(out, "  Frequency: %s\n", frequency)
		for _, m := range metrics {
			kind := m.Aggregation
			if kind == "" {
				kind = "inferred"
			}
			fmt.Fprintf(out, "  Metric: %s (%s, %s)\n", m.Name, m.Unit, kind)
		}

		return nil
	},
}

// parseMetricSpecs parses name:unit[:kind] specs.
func parseMetricSpecs(specs []string) ([]commands.MetricInput, error) {
	metrics := make([]commands.MetricInput, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid metric %q: want name:unit[:sum|max]", spec)
		}
		in := commands.MetricInput{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			in.Unit = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			in.Aggregation = strings.ToLower(strings.TrimSpace(parts[2]))
		}
		metrics = append(metrics, in)
	}
	return metrics, nil
}

func init() {
	createCmd.Flags().StringVarP(&frequency, "frequency", "f", "daily", "daily, weekly, monthly, every_n_days, specific_weekdays")
	createCmd.Flags().IntVar(&interval, "interval", 0, "days between occurrences (every_n_days)")
	createCmd.Flags().StringVar(&weekdays, "weekdays", "", "comma-separated weekdays (specific_weekdays)")
	createCmd.Flags().IntVar(&dailyTarget, "target", 1, "occurrences per day")
	createCmd.Flags().StringVar(&icon, "icon", "", "icon shown with the habit")
	createCmd.Flags().StringVar(&color, "color", "", "display color")
	createCmd.Flags().StringArrayVarP(&metricSpecs, "metric", "m", nil, "metric as name:unit[:sum|max] (repeatable)")
}
