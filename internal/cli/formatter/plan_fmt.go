package formatter

import (
	"fmt"
	"strings"
	"time"

	"estuda/internal/domain"
	"estuda/internal/planner"
)

// FormatPlan renders a full plan: goal, duration, and the day-by-day
// schedule. With links enabled each task gets a Google Calendar URL,
// scheduled from today onward one task per day.
func FormatPlan(plan *domain.Plan, withLinks bool) string {
	var b strings.Builder

	b.WriteString(StyleHeader.Render(plan.PlanGoal) + "\n")
	fmt.Fprintf(&b, "%s %s · %s %d\n\n",
		StyleDim.Render("duration:"), plan.DurationSummary,
		StyleDim.Render("tasks:"), len(plan.Tasks))

	today := time.Now()
	for i, task := range plan.Tasks {
		day := task.Day
		if day == "" {
			day = fmt.Sprintf("Dia %d", i+1)
		}
		slot := task.TimeSlot
		if slot == "" {
			slot = "20:00 - 21:00"
		}

		fmt.Fprintf(&b, "  %s %s  %s\n",
			StyleYellow.Render(day),
			StyleDim.Render(slot),
			StyleBold.Render(task.Topic))
		fmt.Fprintf(&b, "      %s\n", StyleFg.Render(task.Activities))
		if withLinks {
			link := planner.CalendarLink(task, today.AddDate(0, 0, i))
			fmt.Fprintf(&b, "      %s\n", StyleBlue.Render(link))
		}
	}
	return b.String()
}

// FormatPlanList renders a plan set as one line per plan.
func FormatPlanList(heading string, plans []domain.Plan) string {
	var b strings.Builder
	b.WriteString(StyleHeader.Render(heading) + "\n")
	if len(plans) == 0 {
		b.WriteString(StyleDim.Render("  (none)") + "\n")
		return b.String()
	}
	for _, p := range plans {
		marker := StyleYellow.Render("●")
		suffix := ""
		if p.CompletedAt != nil {
			marker = StyleGreen.Render("✓")
			suffix = StyleDim.Render(" completed " + p.CompletedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "  %s %s %s%s\n",
			marker,
			StyleFg.Render(p.PlanGoal),
			StyleDim.Render(fmt.Sprintf("(%d tasks)", len(p.Tasks))),
			suffix)
	}
	return b.String()
}
