package formatter

import (
	"fmt"
	"strings"

	"estuda/internal/domain"
)

// FormatTaskList renders the pending collection, newest first, with a
// short id prefix for the done/rm commands.
func FormatTaskList(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return StyleDim.Render("No pending tasks. Add one with: estuda task add") + "\n"
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render("Tasks") + "\n")
	for _, t := range tasks {
		b.WriteString(FormatTaskLine(t) + "\n")
	}
	return b.String()
}

// FormatTaskLine renders one task as a checklist row.
func FormatTaskLine(t domain.Task) string {
	check := StyleDim.Render("[ ]")
	text := StyleFg.Render(t.Text)
	if t.Completed {
		check = StyleGreen.Render("[x]")
		text = StyleDim.Render(t.Text)
	}
	return fmt.Sprintf("  %s %s %s %s",
		check,
		StyleDim.Render(ShortID(t.ID)),
		text,
		StyleBlue.Render(fmt.Sprintf("(%sh)", trimHours(t.Hours))),
	)
}

// ShortID returns the first id segment, enough to identify a task at the
// prompt.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func trimHours(h float64) string {
	s := fmt.Sprintf("%.2f", h)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
