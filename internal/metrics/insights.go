package metrics

import "fmt"

type InsightKind string

const (
	InsightWarning InsightKind = "warning"
	InsightSuccess InsightKind = "success"
	InsightInfo    InsightKind = "info"
)

type Insight struct {
	Kind        InsightKind
	Title       string
	Description string
	Suggestion  string
}

// Insights reads computed metrics and returns observations worth showing.
// Figures without underlying records produce no insight.
func Insights(m Metrics) []Insight {
	out := make([]Insight, 0)
	if m.TotalTasks > 0 && m.TaskCompletionRate < 50 {
		out = append(out, Insight{
			Kind:        InsightWarning,
			Title:       "Low task completion",
			Description: fmt.Sprintf("Only %d%% of tasks are completed", m.TaskCompletionRate),
			Suggestion:  "Split large tasks or revisit the schedule",
		})
	}
	if m.SessionCount > 0 {
		switch {
		case m.FocusEfficiency > 110:
			out = append(out, Insight{
				Kind:        InsightSuccess,
				Title:       "Excellent focus",
				Description: fmt.Sprintf("Focus efficiency is %d%%, above the planned time", m.FocusEfficiency),
				Suggestion:  "Keep the habit and consider harder tasks",
			})
		case m.FocusEfficiency < 80:
			out = append(out, Insight{
				Kind:        InsightWarning,
				Title:       "Focus could improve",
				Description: fmt.Sprintf("Focus efficiency is %d%%", m.FocusEfficiency),
				Suggestion:  "Reduce interruptions and avoid multitasking",
			})
		}
	}
	if m.StreakDays >= 7 {
		out = append(out, Insight{
			Kind:        InsightSuccess,
			Title:       "Strong streak",
			Description: fmt.Sprintf("Tasks completed %d days in a row", m.StreakDays),
			Suggestion:  "Keep going and raise the bar",
		})
	}
	if m.SessionCount > 0 && m.AverageDailyFocus < 120 {
		out = append(out, Insight{
			Kind:        InsightInfo,
			Title:       "Room for more focus time",
			Description: fmt.Sprintf("Average daily focus is %d minutes", m.AverageDailyFocus),
			Suggestion:  "Aim for at least two hours of focused work per day",
		})
	}
	return out
}
