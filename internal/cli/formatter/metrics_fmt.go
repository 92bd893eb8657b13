package formatter

import (
	"fmt"
	"strings"

	"estuda/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// FormatMetrics renders the dashboard snapshot as a row of metric cards.
func FormatMetrics(snap *domain.MetricsSnapshot) string {
	cards := []string{
		metricCard(fmt.Sprintf("%.2f", snap.TotalStudyHours), "hours (7d)", StyleBlue),
		metricCard(fmt.Sprintf("%.2f", snap.AvgStudyHoursPerDay), "avg/day", StyleGreen),
		metricCard(fmt.Sprintf("%d", snap.TasksCompleted), "tasks done", StylePurple),
		metricCard(fmt.Sprintf("%d", snap.PlansCompleted), "plans done", StyleYellow),
		metricCard(streakValue(snap.CurrentStreak), "day streak", styleForStreak(snap.CurrentStreak)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n"
}

func metricCard(value, label string, style lipgloss.Style) string {
	content := style.Bold(true).Render(value) + "\n" + StyleDim.Render(label)
	return styleCard.Render(content)
}

func streakValue(streak int) string {
	if streak == 0 {
		return "0"
	}
	return fmt.Sprintf("%d 🔥", streak)
}

func styleForStreak(streak int) lipgloss.Style {
	if streak == 0 {
		return StyleDim
	}
	return StyleRed
}

// FormatMetricsPlain renders the snapshot as aligned key/value lines for
// non-interactive output.
func FormatMetricsPlain(snap *domain.MetricsSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total study hours (7d):  %.2f\n", snap.TotalStudyHours)
	fmt.Fprintf(&b, "Average hours per day:   %.2f\n", snap.AvgStudyHoursPerDay)
	fmt.Fprintf(&b, "Tasks completed:         %d\n", snap.TasksCompleted)
	fmt.Fprintf(&b, "Plans completed:         %d\n", snap.PlansCompleted)
	fmt.Fprintf(&b, "Current streak:          %d\n", snap.CurrentStreak)
	return b.String()
}
