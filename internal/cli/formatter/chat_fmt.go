package formatter

import (
	"strings"

	"estuda/internal/tutor"
)

// FormatSegments renders a tutor reply, highlighting LaTeX formulas so
// they stand out from the surrounding explanation in a terminal.
func FormatSegments(segments []tutor.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Math {
			b.WriteString(StylePurple.Render("$" + seg.Text + "$"))
			continue
		}
		b.WriteString(StyleFg.Render(seg.Text))
	}
	b.WriteString("\n")
	return b.String()
}
