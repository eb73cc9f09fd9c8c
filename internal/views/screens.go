package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/conflict"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

const clockLayout = "15:04"

func RenderBlocksPanel(date time.Time, blocks []model.TimeBlock) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("blocks "+date.Format("Mon 2006-01-02")) + "\n")
	if len(blocks) == 0 {
		b.WriteString(mutedStyle.Render("(no time blocks)"))
		return b.String()
	}
	for _, blk := range blocks {
		used := 0
		for _, t := range blk.ScheduledTasks {
			used += t.RequiredMinutes()
		}
		line := fmt.Sprintf("%s-%s %-13s %3dm", blk.StartTime.Format(clockLayout), blk.EndTime.Format(clockLayout), blk.BlockType, blk.DurationMinutes())
		if blk.Recurrence != nil {
			line += " ↻"
		}
		b.WriteString(line + "\n")
		for _, t := range blk.ScheduledTasks {
			b.WriteString(fmt.Sprintf("    · %s (%dp)\n", displayTitle(t), t.EstimatedPomodoros))
		}
		if used > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("    load %d/%dm", used, blk.DurationMinutes())) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderConflictsPanel(res conflict.Result) string {
	var b strings.Builder
	h := res.Histogram
	b.WriteString(titleStyle.Render(fmt.Sprintf("conflicts (%d)", h.Total())))
	b.WriteString(fmt.Sprintf("  critical:%d high:%d medium:%d low:%d\n", h.Critical, h.High, h.Medium, h.Low))
	if len(res.Conflicts) == 0 {
		b.WriteString(mutedStyle.Render("(no conflicts)"))
		return b.String()
	}
	for i, c := range res.Conflicts {
		fix := ""
		if c.AutoFixable {
			fix = " [auto-fix: resolve " + fmt.Sprint(i+1) + "]"
		}
		b.WriteString(fmt.Sprintf("%d. %s %s%s\n", i+1, severityBadge(c.Severity), c.Message, fix))
		for _, s := range c.Suggestions {
			b.WriteString("     - " + s + "\n")
		}
	}
	if res.Skipped > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d block(s) skipped: unusable timestamps", res.Skipped)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// RenderRecommendationsPanel numbers items from 1 so they line up with the
// accept and ignore commands. selected is 0 when nothing is highlighted.
func RenderRecommendationsPanel(res recommend.Result, selected int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("recommendations (%d)", len(res.Items))) + "\n")
	if res.Current != nil {
		b.WriteString("now: " + res.Current.Title + "\n")
	}
	if len(res.Items) == 0 {
		b.WriteString(mutedStyle.Render("(nothing to recommend)"))
		return b.String()
	}
	for i, rec := range res.Items {
		cursor := " "
		if selected == i+1 {
			cursor = ">"
		}
		status := ""
		if rec.Status != recommend.StatusPending {
			status = " (" + strings.ToLower(string(rec.Status)) + ")"
		}
		b.WriteString(fmt.Sprintf("%s%2d. [%3d %s] %s%s\n", cursor, i+1, rec.Score, levelBadge(rec.Level), rec.Title, status))
		if rec.Action.Text != "" {
			b.WriteString("      → " + rec.Action.Text + "\n")
		}
		if len(rec.Reasons) > 0 {
			b.WriteString(mutedStyle.Render("      "+strings.Join(rec.Reasons, ", ")) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderMetricsPanel(m metrics.Metrics) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("productivity %s: %d/100", m.Window, m.OverallScore)) + "\n")
	b.WriteString(fmt.Sprintf("completion %d%% (%d/%d)  focus %d%%  utilization %d%%\n",
		m.TaskCompletionRate, m.CompletedTasks, m.TotalTasks, m.FocusEfficiency, m.TimeUtilization))
	b.WriteString(fmt.Sprintf("diversity %d  consistency %d  streak %dd  daily focus %dm  trend %s\n",
		m.Diversity, m.Consistency, m.StreakDays, m.AverageDailyFocus, m.Trend))
	for _, in := range m.Insights {
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", strings.ToUpper(string(in.Kind)), in.Title, in.Description))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(bindings []string, helpView string) string {
	return fmt.Sprintf("help:\n%s\n\ncommands: accept <n> · ignore <n> · resolve <n> · date <YYYY-MM-DD> · range <preset> · refresh\n%s",
		strings.Join(bindings, "\n"),
		helpView,
	)
}

func displayTitle(t model.Task) string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}
