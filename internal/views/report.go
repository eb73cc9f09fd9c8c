package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/planner"
)

// Markdown writes a plan as a markdown document for RenderMarkdown or for
// saving to a file.
func Markdown(p planner.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan for %s\n\n", p.Date.Format("Monday, 2006-01-02"))

	b.WriteString("## Time blocks\n\n")
	if len(p.Blocks) == 0 {
		b.WriteString("_No time blocks._\n\n")
	} else {
		b.WriteString("| Time | Type | Minutes | Tasks |\n|---|---|---|---|\n")
		for _, blk := range p.Blocks {
			titles := make([]string, 0, len(blk.ScheduledTasks))
			for _, t := range blk.ScheduledTasks {
				titles = append(titles, displayTitle(t))
			}
			fmt.Fprintf(&b, "| %s-%s | %s | %d | %s |\n",
				blk.StartTime.Format(clockLayout), blk.EndTime.Format(clockLayout), blk.BlockType, blk.DurationMinutes(), strings.Join(titles, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Conflicts (%d)\n\n", len(p.Conflicts.Conflicts))
	if len(p.Conflicts.Conflicts) == 0 {
		b.WriteString("_None._\n\n")
	}
	for i, c := range p.Conflicts.Conflicts {
		fmt.Fprintf(&b, "%d. **%s** %s\n", i+1, c.Severity, c.Message)
		if c.AutoFixable && c.Fix != nil {
			fmt.Fprintf(&b, "   - fix: `%s`\n", c.Fix.String())
		}
	}
	if len(p.Conflicts.Conflicts) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	if len(p.Recommendations.Items) == 0 {
		b.WriteString("_Nothing to recommend._\n\n")
	}
	for i, rec := range p.Recommendations.Items {
		fmt.Fprintf(&b, "%d. **%s** (score %d, %s)", i+1, rec.Title, rec.Score, rec.Level)
		if rec.Action.Text != "" {
			fmt.Fprintf(&b, ": %s", rec.Action.Text)
		}
		b.WriteString("\n")
		if len(rec.Reasons) > 0 {
			fmt.Fprintf(&b, "   - %s\n", strings.Join(rec.Reasons, "; "))
		}
	}
	if len(p.Recommendations.Items) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(MetricsMarkdown(p.Metrics))
	return b.String()
}

func MetricsMarkdown(m metrics.Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Productivity (%s)\n\n", m.Window)
	b.WriteString("| Metric | Value |\n|---|---|\n")
	rows := []struct {
		name  string
		value string
	}{
		{"Overall", fmt.Sprintf("%d", m.OverallScore)},
		{"Task completion", fmt.Sprintf("%d%%", m.TaskCompletionRate)},
		{"Focus efficiency", fmt.Sprintf("%d%%", m.FocusEfficiency)},
		{"Time utilization", fmt.Sprintf("%d%%", m.TimeUtilization)},
		{"Diversity", fmt.Sprintf("%d", m.Diversity)},
		{"Consistency", fmt.Sprintf("%d", m.Consistency)},
		{"Streak", fmt.Sprintf("%d days", m.StreakDays)},
		{"Average daily focus", fmt.Sprintf("%d min", m.AverageDailyFocus)},
		{"Trend", string(m.Trend)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r.name, r.value)
	}
	if len(m.Insights) > 0 {
		b.WriteString("\n### Insights\n\n")
		for _, in := range m.Insights {
			fmt.Fprintf(&b, "- **%s**: %s. %s\n", in.Title, in.Description, in.Suggestion)
		}
	}
	return b.String()
}
