package model

import (
	"sort"
	"time"
)

// Snapshot is the read-only view of source records the planner computes over.
// Callers own it; planner code never mutates it.
type Snapshot struct {
	Tasks      []Task
	Blocks     []TimeBlock
	Sessions   []PomodoroSession
	Categories []Category
	Projects   []Project
}

func (s Snapshot) Category(id string) (Category, bool) {
	if id == "" {
		return Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (s Snapshot) Project(id string) (Project, bool) {
	if id == "" {
		return Project{}, false
	}
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// CategoryName falls back to a fixed label for uncategorized tasks.
func (s Snapshot) CategoryName(t Task) string {
	if c, ok := s.Category(t.CategoryID); ok && c.Name != "" {
		return c.Name
	}
	return UncategorizedName
}

const UncategorizedName = "uncategorized"

// PendingTasks keeps input order.
func (s Snapshot) PendingTasks() []Task {
	out := make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Status == TaskStatusPending {
			out = append(out, t)
		}
	}
	return out
}

// BlocksOn returns the blocks dated on day, plus recurring blocks projected
// onto day, sorted by start time. Projected copies keep the source ID and
// drop scheduled tasks since assignments are per occurrence.
func (s Snapshot) BlocksOn(day time.Time) []TimeBlock {
	out := make([]TimeBlock, 0)
	seen := make(map[string]bool)
	for _, b := range s.Blocks {
		if b.StartTime.IsZero() && b.Date.IsZero() {
			continue
		}
		if SameDay(day, b.Day()) {
			out = append(out, b)
			seen[b.ID] = true
		}
	}
	for _, b := range s.Blocks {
		if b.Recurrence == nil || seen[b.ID] || !b.Valid() {
			continue
		}
		if !b.Recurrence.OccursOn(day) {
			continue
		}
		out = append(out, projectBlock(b, day))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func projectBlock(b TimeBlock, day time.Time) TimeBlock {
	length := b.EndTime.Sub(b.StartTime)
	start := b.Recurrence.At(day)
	b.Date = StartOfDay(start)
	b.StartTime = start
	b.EndTime = start.Add(length)
	b.ScheduledTasks = nil
	return b
}
