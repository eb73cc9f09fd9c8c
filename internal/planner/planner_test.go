package planner

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/conflict"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

var (
	day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now = day.Add(8 * time.Hour)
)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func fixture() model.Snapshot {
	late := model.Task{
		ID: "t-late", Title: "Write report", Priority: model.PriorityHigh, Type: model.TaskTypeFlexible,
		Status: model.TaskStatusPending, EstimatedPomodoros: 3, CategoryID: "work", CreatedAt: day.Add(-24 * time.Hour),
	}
	planned := day.Add(30 * time.Hour)
	late.PlannedStartTime = &planned
	overrun := model.Task{
		ID: "t-over", Title: "Refactor", Priority: model.PriorityMedium, Type: model.TaskTypeFlexible,
		Status: model.TaskStatusPending, EstimatedPomodoros: 3, CreatedAt: day.Add(-24 * time.Hour), ScheduledBlockID: "b-a",
	}
	return model.Snapshot{
		Tasks: []model.Task{late, overrun},
		Blocks: []model.TimeBlock{
			{ID: "b-a", Date: day, StartTime: at(9, 0), EndTime: at(10, 0), BlockType: model.BlockTypeReview, ScheduledTasks: []model.Task{overrun}},
			{ID: "b-b", Date: day, StartTime: at(9, 30), EndTime: at(10, 30), BlockType: model.BlockTypeRest},
			{ID: "b-c", Date: day, StartTime: at(14, 0), EndTime: at(16, 0), BlockType: model.BlockTypeResearch},
			{ID: "other-day", Date: day.AddDate(0, 0, 1), StartTime: at(33, 0), EndTime: at(34, 0), BlockType: model.BlockTypeResearch},
		},
		Categories: []model.Category{{ID: "work", Name: "Work"}},
	}
}

func TestPlanBundlesEveryComponent(t *testing.T) {
	p := New(DefaultConfig())
	plan := p.Plan(fixture(), Request{Date: at(12, 0), Now: now, Window: metrics.PresetWindow(metrics.PresetAll)})

	if len(plan.Blocks) != 3 {
		t.Fatalf("expected the day's three blocks, got %d", len(plan.Blocks))
	}
	overlaps := 0
	for _, c := range plan.Conflicts.Conflicts {
		if c.Type == conflict.TypeTimeOverlap {
			overlaps++
			if c.Severity.Rank() < conflict.SeverityMedium.Rank() {
				t.Fatalf("expected at least medium severity, got %s", c.Severity)
			}
		}
	}
	if overlaps != 1 {
		t.Fatalf("expected exactly one overlap, got %d", overlaps)
	}
	if plan.Recommendations.Current == nil || plan.Recommendations.Current.Task.ID != "t-late" {
		t.Fatalf("expected t-late as current recommendation, got %+v", plan.Recommendations.Current)
	}
	if plan.Recommendations.Current.Priority < 0.7 {
		t.Fatalf("expected a high score, got %v", plan.Recommendations.Current.Priority)
	}
	if plan.Metrics.TotalTasks != 2 {
		t.Fatalf("expected metrics over two tasks, got %d", plan.Metrics.TotalTasks)
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	p := New(DefaultConfig())
	snap := fixture()
	req := Request{Date: day, Now: now}
	if !reflect.DeepEqual(p.Plan(snap, req), p.Plan(snap, req)) {
		t.Fatalf("expected identical plans for identical input")
	}
}

func TestAcceptAndResolve(t *testing.T) {
	p := New(DefaultConfig())
	plan := p.Plan(fixture(), Request{Date: day, Now: now})

	cmds, err := p.Accept(*plan.Recommendations.Current)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Type != commands.TypeAssignTask || cmds[0].AssignTask.BlockID != "b-c" {
		t.Fatalf("unexpected accept commands %+v", cmds)
	}

	var duration *conflict.Conflict
	for i, c := range plan.Conflicts.Conflicts {
		if c.Type == conflict.TypeTaskDuration {
			duration = &plan.Conflicts.Conflicts[i]
		}
	}
	if duration == nil {
		t.Fatalf("expected a task_duration conflict")
	}
	fix, err := p.Resolve(*duration)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fix.Type != commands.TypeAssignTask || fix.AssignTask.TaskID != "t-over" || fix.AssignTask.BlockID != "b-c" {
		t.Fatalf("unexpected fix %+v", fix)
	}

	for _, c := range plan.Conflicts.Conflicts {
		if c.Type == conflict.TypeTimeOverlap {
			if _, err := p.Resolve(c); !errors.Is(err, ErrNotAutoFixable) {
				t.Fatalf("expected ErrNotAutoFixable, got %v", err)
			}
		}
	}
	if _, err := p.Accept(recommend.Recommendation{Title: "rest"}); !errors.Is(err, ErrNothingToApply) {
		t.Fatalf("expected ErrNothingToApply, got %v", err)
	}
}

func TestLookupByPosition(t *testing.T) {
	plan := New(DefaultConfig()).Plan(fixture(), Request{Date: day, Now: now})
	if _, err := plan.Recommendation(0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := plan.Conflict(len(plan.Conflicts.Conflicts) + 1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	first, err := plan.Recommendation(1)
	if err != nil || first.ID != plan.Recommendations.Items[0].ID {
		t.Fatalf("unexpected first item %v", err)
	}
}

func TestEmptySnapshot(t *testing.T) {
	plan := New(DefaultConfig()).Plan(model.Snapshot{}, Request{Date: day, Now: now})
	if len(plan.Conflicts.Conflicts) != 0 || len(plan.Recommendations.Items) != 0 || plan.Recommendations.Current != nil {
		t.Fatalf("expected an empty plan, got %+v", plan)
	}
	if plan.Metrics.TaskCompletionRate != 0 {
		t.Fatalf("expected zero completion rate")
	}
}
