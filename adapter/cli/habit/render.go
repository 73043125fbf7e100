package habit

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/felixgeelhaar/cadence/internal/habits/domain"
)

var (
	// Met cells, faintest to strongest.
	intensityStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
	}
	missedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

const (
	metGlyph    = "■"
	missedGlyph = "□"
	offGlyph    = "·"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// renderHeatmap lays the cells out Monday-first, one column per week.
func renderHeatmap(grid *queries.HeatmapDTO) string {
	start := grid.From.AddDays(-mondayOffset(grid.From.Weekday()))
	weeks := start.DaysUntil(grid.To)/7 + 1

	rows := make([]string, 0, 7)
	for row := range 7 {
		var b strings.Builder
		b.WriteString(labelStyle.Render(weekdayLabels[row]))
		for week := range weeks {
			b.WriteString(" ")
			day := start.AddDays(week*7 + row)
			if day.Before(grid.From) || day.After(grid.To) {
				b.WriteString(" ")
				continue
			}
			b.WriteString(renderCell(grid.Cells[grid.From.DaysUntil(day)], grid.MaxValue))
		}
		rows = append(rows, b.String())
	}

	rows = append(rows, labelStyle.Render(fmt.Sprintf("%d of %d days met", grid.MetDays, len(grid.Cells))))
	return strings.Join(rows, "\n") + "\n"
}

func renderCell(cell queries.HeatmapCell, maxValue float64) string {
	switch {
	case cell.Met:
		return intensityStyles[intensity(cell.Value, maxValue)].Render(metGlyph)
	case cell.Due:
		return missedStyle.Render(missedGlyph)
	default:
		return offStyle.Render(offGlyph)
	}
}

// intensity buckets value against maxValue. Without a metric every met cell
// gets the strongest shade.
func intensity(value, maxValue float64) int {
	last := len(intensityStyles) - 1
	if maxValue <= 0 {
		return last
	}
	idx := int(math.Ceil(value/maxValue*float64(len(intensityStyles)))) - 1
	return min(max(idx, 0), last)
}

func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// progressBar renders fraction in [0, 1] as a fixed-width bar.
func progressBar(fraction float64, width int) string {
	filled := int(math.Round(min(max(fraction, 0), 1) * float64(width)))
	return "[" + barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled) + "]"
}

// sparkline scales scores against ceiling.
func sparkline(points []domain.ScorePoint, ceiling int) string {
	if len(points) == 0 {
		return ""
	}
	top := len(sparkTicks) - 1
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if ceiling > 0 {
			idx = int(math.Round(float64(p.Score) / float64(ceiling) * float64(top)))
		}
		b.WriteRune(sparkTicks[min(max(idx, 0), top)])
	}
	return barStyle.Render(b.String())
}
