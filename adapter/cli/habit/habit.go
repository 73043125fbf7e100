package habit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the habit command group
var Cmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
	Long:  `Create habits, log activities, set goals and review progress.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(logCmd)
	Cmd.AddCommand(unlogCmd)
	Cmd.AddCommand(archiveCmd)
	Cmd.AddCommand(unarchiveCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(metricCmd)
	Cmd.AddCommand(goalCmd)
	Cmd.AddCommand(progressCmd)
	Cmd.AddCommand(heatmapCmd)
	Cmd.AddCommand(trendCmd)
	Cmd.AddCommand(reviewCmd)
	Cmd.AddCommand(shareCmd)
}

// requireApp returns the wired app, or prints a hint when the CLI runs
// without a database.
func requireApp(out io.Writer, ready func(*cli.App) bool, action string) (*cli.App, bool) {
	app := cli.GetApp()
	if app == nil || !ready(app) {
		fmt.Fprintf(out, "%s requires a database connection.\n", action)
		fmt.Fprintln(out, "Check CADENCE_SQLITE_PATH or DATABASE_URL.")
		return nil, false
	}
	return app, true
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", kind, err)
	}
	return id, nil
}

// parseDay parses an optional YYYY-MM-DD flag. Empty yields the zero day.
func parseDay(flag, raw string) (domain.Day, error) {
	if raw == "" {
		return domain.Day{}, nil
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		return domain.Day{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return day, nil
}

// parsePoints parses repeated metric=value pairs.
func parsePoints(raw []string) ([]domain.LogPoint, error) {
	points := make([]domain.LogPoint, 0, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid point %q: want metric=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", pair, err)
		}
		points = append(points, domain.LogPoint{Metric: name, Value: v})
	}
	return points, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
