// Package metrics aggregates productivity figures over a window of tasks,
// pomodoro sessions and time blocks.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

const (
	dailyTargetMinutes = 480
	streakLookbackDays = 30
	trendMinRecords    = 7
	dayLayout          = "2006-01-02"

	weightCompletion  = 0.30
	weightFocus       = 0.25
	weightUtilization = 0.20
	weightDiversity   = 0.15
	weightConsistency = 0.10
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Metrics percentages are whole numbers. FocusEfficiency and TimeUtilization
// may exceed 100; they are clamped only inside OverallScore.
type Metrics struct {
	Window             Window
	OverallScore       int
	TaskCompletionRate int
	FocusEfficiency    int
	TimeUtilization    int
	Diversity          int
	Consistency        int
	StreakDays         int
	// AverageDailyFocus is in minutes per active day.
	AverageDailyFocus int
	Trend             Trend

	TotalTasks     int
	CompletedTasks int
	SessionCount   int
	FocusMinutes   int

	Insights []Insight
	Daily    []Day
	Heatmap  []HeatCell
}

type Day struct {
	Date           string
	TotalTasks     int
	CompletedTasks int
	Sessions       int
	FocusMinutes   int
}

// HeatCell is focus time started in one weekday/hour slot.
type HeatCell struct {
	Weekday      time.Weekday
	Hour         int
	Sessions     int
	FocusMinutes int
}

// Compute is a pure function of its arguments; days are bucketed in now's
// location.
func Compute(snap model.Snapshot, w Window, now time.Time) Metrics {
	f := Filter(snap, w, now)
	loc := now.Location()

	m := Metrics{
		Window:             w,
		TotalTasks:         len(f.Tasks),
		CompletedTasks:     countCompleted(f.Tasks),
		SessionCount:       len(f.Sessions),
		TaskCompletionRate: CompletionRate(f.Tasks),
		FocusEfficiency:    FocusEfficiency(f.Sessions),
		TimeUtilization:    TimeUtilization(f.Blocks),
		Diversity:          Diversity(f.Tasks),
		Consistency:        Consistency(f.Sessions, loc),
		StreakDays:         Streak(f.Tasks, now),
		AverageDailyFocus:  AverageDailyFocus(f.Sessions, loc),
		Trend:              TrendOf(f.Tasks, f.Sessions, now),
	}
	for _, s := range f.Sessions {
		m.FocusMinutes += s.FocusMinutes()
	}
	if m.TotalTasks > 0 {
		m.OverallScore = overall(m)
	}
	m.Insights = Insights(m)
	m.Daily = daily(f, loc)
	m.Heatmap = heatmap(f.Sessions, loc)
	return m
}

func overall(m Metrics) int {
	score := weightCompletion*clamp(m.TaskCompletionRate) +
		weightFocus*clamp(m.FocusEfficiency) +
		weightUtilization*clamp(m.TimeUtilization) +
		weightDiversity*clamp(m.Diversity) +
		weightConsistency*clamp(m.Consistency)
	return int(math.Round(score))
}

func clamp(v int) float64 {
	return math.Max(0, math.Min(100, float64(v)))
}

func percent(num, den float64) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(num / den * 100))
}

func countCompleted(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status == model.TaskStatusCompleted {
			n++
		}
	}
	return n
}

func CompletionRate(tasks []model.Task) int {
	return percent(float64(countCompleted(tasks)), float64(len(tasks)))
}

// FocusEfficiency compares focused minutes with planned minutes. It is 0
// without sessions and 100 when no session carries a plan.
func FocusEfficiency(sessions []model.PomodoroSession) int {
	if len(sessions) == 0 {
		return 0
	}
	actual, planned := 0, 0
	for _, s := range sessions {
		actual += s.FocusMinutes()
		if s.PlannedDuration > 0 {
			planned += s.PlannedDuration
		}
	}
	if planned == 0 {
		return 100
	}
	return percent(float64(actual), float64(planned))
}

// TimeUtilization measures blocked-out time against an eight hour day for
// every day that has blocks.
func TimeUtilization(blocks []model.TimeBlock) int {
	total := 0
	days := make(map[string]bool)
	for _, b := range blocks {
		if !b.Valid() {
			continue
		}
		total += b.DurationMinutes()
		days[b.Day().Format(dayLayout)] = true
	}
	return percent(float64(total), float64(dailyTargetMinutes*len(days)))
}

func Diversity(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	categories := make(map[string]bool)
	projects := make(map[string]bool)
	for _, t := range tasks {
		if t.CategoryID != "" {
			categories[t.CategoryID] = true
		}
		if t.ProjectID != "" {
			projects[t.ProjectID] = true
		}
	}
	cat := math.Min(float64(len(categories))/3, 1)
	proj := math.Min(float64(len(projects))/2, 1)
	return int(math.Round((cat + proj) / 2 * 100))
}

// Consistency rewards two to four sessions per active day.
func Consistency(sessions []model.PomodoroSession, loc *time.Location) int {
	days := make(map[string]int)
	count := 0
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			continue
		}
		days[s.CreatedAt.In(loc).Format(dayLayout)]++
		count++
	}
	if len(days) == 0 {
		return 0
	}
	avg := float64(count) / float64(len(days))
	switch {
	case avg >= 2 && avg <= 4:
		return 100
	case avg < 2:
		return int(math.Round(avg / 2 * 100))
	default:
		return int(math.Max(0, math.Round(100-(avg-4)*20)))
	}
}

// Streak counts consecutive days, ending today, on which some task was
// completed. Completion day is the task's UpdatedAt.
func Streak(tasks []model.Task, now time.Time) int {
	done := make(map[string]bool)
	for _, t := range tasks {
		if t.Status == model.TaskStatusCompleted && !t.UpdatedAt.IsZero() {
			done[t.UpdatedAt.In(now.Location()).Format(dayLayout)] = true
		}
	}
	streak := 0
	day := model.StartOfDay(now)
	for i := 0; i < streakLookbackDays; i++ {
		if !done[day.AddDate(0, 0, -i).Format(dayLayout)] {
			break
		}
		streak++
	}
	return streak
}

func AverageDailyFocus(sessions []model.PomodoroSession, loc *time.Location) int {
	total := 0
	days := make(map[string]bool)
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			continue
		}
		total += s.FocusMinutes()
		days[s.CreatedAt.In(loc).Format(dayLayout)] = true
	}
	if len(days) == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(len(days))))
}

// TrendOf compares completions in the last seven days with the seven before.
func TrendOf(tasks []model.Task, sessions []model.PomodoroSession, now time.Time) Trend {
	if len(tasks) < trendMinRecords || len(sessions) < trendMinRecords {
		return TrendStable
	}
	week := 7 * 24 * time.Hour
	recent, prior := 0, 0
	for _, t := range tasks {
		if t.Status != model.TaskStatusCompleted || t.UpdatedAt.IsZero() || t.UpdatedAt.After(now) {
			continue
		}
		age := now.Sub(t.UpdatedAt)
		switch {
		case age < week:
			recent++
		case age < 2*week:
			prior++
		}
	}
	switch {
	case float64(recent) > 1.2*float64(prior):
		return TrendImproving
	case float64(recent) < 0.8*float64(prior):
		return TrendDeclining
	default:
		return TrendStable
	}
}

func daily(f Filtered, loc *time.Location) []Day {
	byDate := make(map[string]*Day)
	get := func(t time.Time) *Day {
		key := t.In(loc).Format(dayLayout)
		d, ok := byDate[key]
		if !ok {
			d = &Day{Date: key}
			byDate[key] = d
		}
		return d
	}
	for _, t := range f.Tasks {
		d := get(t.CreatedAt)
		d.TotalTasks++
		if t.Status == model.TaskStatusCompleted {
			d.CompletedTasks++
		}
	}
	for _, s := range f.Sessions {
		d := get(s.CreatedAt)
		d.Sessions++
		d.FocusMinutes += s.FocusMinutes()
	}
	out := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// heatmap keeps only slots with at least one session.
func heatmap(sessions []model.PomodoroSession, loc *time.Location) []HeatCell {
	type slot struct {
		weekday time.Weekday
		hour    int
	}
	cells := make(map[slot]*HeatCell)
	for _, s := range sessions {
		if s.StartTime.IsZero() {
			continue
		}
		start := s.StartTime.In(loc)
		k := slot{start.Weekday(), start.Hour()}
		c, ok := cells[k]
		if !ok {
			c = &HeatCell{Weekday: k.weekday, Hour: k.hour}
			cells[k] = c
		}
		c.Sessions++
		c.FocusMinutes += s.FocusMinutes()
	}
	out := make([]HeatCell, 0, len(cells))
	for _, c := range cells {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}
