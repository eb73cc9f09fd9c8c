package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/match"
	"github.com/sandeepkv93/blockd/internal/model"
)

type Config struct {
	// MinScore is the raw score below which a task is not recommended.
	MinScore           float64
	MaxRecommendations int
	ImportantKinds     []model.CategoryKind
}

func DefaultConfig() Config {
	return Config{
		MinScore:           0.30,
		MaxRecommendations: 10,
		ImportantKinds:     []model.CategoryKind{model.CategoryWork, model.CategoryLearning},
	}
}

func (c Config) minPoints() int {
	return int(math.Round(c.MinScore * 100))
}

// Subject is everything a rule may look at for one task.
type Subject struct {
	Task         model.Task
	Project      *model.Project
	CategoryKind model.CategoryKind
	Important    bool
	Now          time.Time
}

// DaysUntil is the whole number of days from Now to the planned start,
// truncated toward zero. ok is false without a planned start.
func (s Subject) DaysUntil() (int, bool) {
	if s.Task.PlannedStartTime == nil || s.Task.PlannedStartTime.IsZero() {
		return 0, false
	}
	return int(s.Task.PlannedStartTime.Sub(s.Now) / (24 * time.Hour)), true
}

// Rule adds Points when Applies holds. Points are hundredths of the raw
// score.
type Rule struct {
	Name    string
	Points  int
	Reason  string
	Applies func(Subject) bool
}

// Rules is evaluated in order; every matching rule contributes.
var Rules = []Rule{
	{
		Name: "priority_high", Points: 40, Reason: "high priority task",
		Applies: func(s Subject) bool { return s.Task.Priority == model.PriorityHigh },
	},
	{
		Name: "priority_medium", Points: 20, Reason: "medium priority task",
		Applies: func(s Subject) bool { return s.Task.Priority == model.PriorityMedium },
	},
	{
		Name: "due_soon", Points: 30, Reason: "due within a day",
		Applies: func(s Subject) bool {
			days, ok := s.DaysUntil()
			return ok && days <= 1
		},
	},
	{
		Name: "due_approaching", Points: 20, Reason: "due within three days",
		Applies: func(s Subject) bool {
			days, ok := s.DaysUntil()
			return ok && days > 1 && days <= 3
		},
	},
	{
		Name: "complex", Points: 10, Reason: "complex task, start early",
		Applies: func(s Subject) bool { return s.Task.EstimatedPomodoros >= 3 },
	},
	{
		Name: "important_project", Points: 10, Reason: "belongs to a high priority project",
		Applies: func(s Subject) bool { return s.Project != nil && s.Project.Priority == model.PriorityHigh },
	},
	{
		Name: "important_category", Points: 10, Reason: "important category",
		Applies: func(s Subject) bool { return s.Important },
	},
}

// Score evaluates Rules against one subject.
func Score(s Subject) (int, []string) {
	points := 0
	reasons := make([]string, 0, 4)
	for _, rule := range Rules {
		if rule.Applies(s) {
			points += rule.Points
			reasons = append(reasons, rule.Reason)
		}
	}
	return points, reasons
}

// Input is the slice of the snapshot a ranking needs.
type Input struct {
	Snapshot model.Snapshot
	// Blocks are the candidate blocks of Date.
	Blocks []model.TimeBlock
	Date   time.Time
	Now    time.Time
}

// Rank scores every pending task, drops those under the minimum, attaches a
// suggested block or a create-block proposal, then sorts and truncates.
func Rank(in Input, cfg Config) []Recommendation {
	important := make(map[model.CategoryKind]bool, len(cfg.ImportantKinds))
	for _, k := range cfg.ImportantKinds {
		important[k] = true
	}
	minPoints := cfg.minPoints()

	type ranked struct {
		rec   Recommendation
		order int
	}
	out := make([]ranked, 0)
	for i, task := range in.Snapshot.PendingTasks() {
		if !task.Schedulable() {
			continue
		}
		subject := Subject{Task: task, Now: in.Now}
		if p, ok := in.Snapshot.Project(task.ProjectID); ok {
			p := p
			subject.Project = &p
		}
		if c, ok := in.Snapshot.Category(task.CategoryID); ok {
			subject.CategoryKind = c.EffectiveKind()
			subject.Important = important[subject.CategoryKind]
		}

		points, reasons := Score(subject)
		if points < minPoints {
			continue
		}
		out = append(out, ranked{rec: taskRecommendation(task, subject.CategoryKind, points, reasons, in), order: i})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].rec, out[j].rec
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ap, bp := a.Task.PlannedStartTime, b.Task.PlannedStartTime
		switch {
		case ap != nil && bp == nil:
			return true
		case ap == nil && bp != nil:
			return false
		case ap != nil && bp != nil && !ap.Equal(*bp):
			return ap.Before(*bp)
		}
		if !a.Task.CreatedAt.Equal(b.Task.CreatedAt) {
			return a.Task.CreatedAt.Before(b.Task.CreatedAt)
		}
		return out[i].order < out[j].order
	})

	if cfg.MaxRecommendations > 0 && len(out) > cfg.MaxRecommendations {
		out = out[:cfg.MaxRecommendations]
	}
	recs := make([]Recommendation, len(out))
	for i := range out {
		recs[i] = out[i].rec
	}
	return recs
}

func taskRecommendation(task model.Task, kind model.CategoryKind, points int, reasons []string, in Input) Recommendation {
	rec := New(TypeTask, task.ID, points, in.Now)
	rec.Title = task.Title
	rec.Description = task.Description
	rec.Task = &task
	rec.Reasons = reasons
	rec.Energy = EnergyFor(task)
	rec.EstimatedMinutes = task.RequiredMinutes()

	ctx := match.Context{Date: in.Date, CategoryKind: kind}
	if best, ok := match.Best(task, in.Blocks, ctx); ok {
		rec.SuggestedBlock = &best
		rec.Action = scheduleAction(task, best)
		return rec
	}
	rec.Action = createAction(task, match.ProposeBlock(task, ctx))
	return rec
}

func scheduleAction(task model.Task, m match.Match) Action {
	at := m.Block.StartTime.Format("15:04")
	if task.ScheduledBlockID == m.Block.ID {
		return Action{
			Kind:        ActionStartTask,
			Text:        fmt.Sprintf("Start in the %s block", at),
			Description: fmt.Sprintf("%q is already scheduled in its best %s block", task.Title, m.Block.BlockType),
		}
	}
	return Action{
		Kind:        ActionScheduleToBlock,
		Text:        fmt.Sprintf("Schedule into the %s block", at),
		Description: fmt.Sprintf("Move %q into the %s block", task.Title, m.Block.BlockType),
		Commands:    []commands.Command{commands.AssignTask(task.ID, m.Block.ID)},
	}
}

func createAction(task model.Task, p match.Proposal) Action {
	return Action{
		Kind:        ActionCreateBlock,
		Text:        "Create a new time block",
		Description: fmt.Sprintf("Create a %d-minute %s block for %q", task.RequiredMinutes(), p.BlockType, task.Title),
		Commands: []commands.Command{commands.CreateBlock(commands.CreateBlockArgs{
			Date:      p.Date,
			Start:     p.Start,
			End:       p.End,
			BlockType: p.BlockType,
			Color:     p.Color,
			TaskID:    task.ID,
		})},
	}
}
