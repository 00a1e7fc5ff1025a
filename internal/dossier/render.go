package dossier

import (
	"fmt"
	"strings"

	"github.com/kmorand/attache/internal/sources"
)

// RenderRawContext deterministically flattens a dossier into the grounding
// string handed to the conversational agent. Rendering the same dossier
// twice yields the same string: section order is fixed (tracker issues,
// document pages, day-by-day workstream sections, aggregated decisions)
// and every list is emitted in its stored order.
func RenderRawContext(d *IntelligenceDossier) string {
	var b strings.Builder

	b.WriteString("# Business Context\n\n")
	b.WriteString(d.SystemStatus)
	b.WriteString("\n")

	if len(d.LinearIssues) > 0 {
		b.WriteString("\n## Active Linear Issues\n")
		for _, issue := range d.LinearIssues {
			b.WriteString("- ")
			b.WriteString(issue.Title)
			if issue.Project != "" {
				fmt.Fprintf(&b, " [%s]", issue.Project)
			}
			fmt.Fprintf(&b, " (%s", sources.PriorityLabel(issue.Priority))
			if issue.State != "" {
				b.WriteString(", ")
				b.WriteString(issue.State)
			}
			b.WriteString(")\n")
		}
	}

	if len(d.NotionPages) > 0 {
		b.WriteString("\n## Notion Documents\n")
		for _, page := range d.NotionPages {
			b.WriteString("- ")
			b.WriteString(page.Title)
			if page.LastEdited != "" {
				fmt.Fprintf(&b, " (edited %s)", page.LastEdited)
			}
			b.WriteString("\n")
		}
	}

	for _, entry := range d.Timeline {
		fmt.Fprintf(&b, "\n## Workstream — %s\n", entry.DayLabel)
		if entry.TimeRange != "" {
			fmt.Fprintf(&b, "_%s_\n", entry.TimeRange)
		}
		b.WriteString(strings.TrimSpace(entry.Content))
		b.WriteString("\n")
	}

	if len(d.RecentDecisions) > 0 {
		b.WriteString("\n## Key Decisions\n")
		for _, decision := range d.RecentDecisions {
			b.WriteString("- ")
			b.WriteString(decision)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// statusToken renders one source's status fragment: "Name ✓ (3 days)" on
// success, "Name ✗" on absence.
func statusToken(name string, connected bool, count int, unit string) string {
	if !connected {
		return name + " ✗"
	}
	if count == 1 {
		// trim plural "s"
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%s ✓ (%d %s)", name, count, unit)
}

// buildStatus assembles the system-status line. Sources are evaluated
// independently; one failing source never hides another's token.
func buildStatus(d *IntelligenceDossier) string {
	tokens := []string{
		statusToken("Pieces", d.PiecesConnected, len(d.Timeline), "days"),
		statusToken("Linear", d.LinearConnected, len(d.LinearIssues), "issues"),
		statusToken("Notion", d.NotionConnected, len(d.NotionPages), "pages"),
	}
	return strings.Join(tokens, " | ")
}
