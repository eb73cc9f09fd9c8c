package views

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/planner"
)

func fixturePlan(t *testing.T) planner.Plan {
	t.Helper()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }
	long := model.Task{
		ID: "t-long", Title: "Draft chapter", Priority: model.PriorityHigh, Type: model.TaskTypeFlexible,
		Status: model.TaskStatusPending, EstimatedPomodoros: 3, CreatedAt: now.Add(-time.Hour),
	}
	snap := model.Snapshot{
		Tasks: []model.Task{long},
		Blocks: []model.TimeBlock{
			{ID: "b-1", StartTime: at(9, 0), EndTime: at(10, 0), BlockType: model.BlockTypeResearch, ScheduledTasks: []model.Task{long}},
			{ID: "b-2", StartTime: at(9, 30), EndTime: at(10, 30), BlockType: model.BlockTypeReview},
		},
	}
	return planner.New(planner.DefaultConfig()).Plan(snap, planner.Request{Date: now, Now: now})
}

func TestRenderPanels(t *testing.T) {
	plan := fixturePlan(t)

	blocks := RenderBlocksPanel(plan.Date, plan.Blocks)
	for _, want := range []string{"09:00-10:00", "RESEARCH", "Draft chapter (3p)", "load 75/60m"} {
		if !strings.Contains(blocks, want) {
			t.Fatalf("blocks panel missing %q:\n%s", want, blocks)
		}
	}

	conflicts := RenderConflictsPanel(plan.Conflicts)
	if !strings.Contains(conflicts, "conflicts (2)") || !strings.Contains(conflicts, "[HIGH]") {
		t.Fatalf("unexpected conflicts panel:\n%s", conflicts)
	}

	recs := RenderRecommendationsPanel(plan.Recommendations, 1)
	if !strings.Contains(recs, ">") || !strings.Contains(recs, " 1. [") {
		t.Fatalf("expected a highlighted first row:\n%s", recs)
	}
}

func TestRenderEmptyPanels(t *testing.T) {
	plan := planner.New(planner.DefaultConfig()).Plan(model.Snapshot{}, planner.Request{Now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)})
	if got := RenderBlocksPanel(plan.Date, nil); !strings.Contains(got, "(no time blocks)") {
		t.Fatalf("unexpected empty blocks panel %q", got)
	}
	if got := RenderConflictsPanel(plan.Conflicts); !strings.Contains(got, "(no conflicts)") {
		t.Fatalf("unexpected empty conflicts panel %q", got)
	}
	if got := RenderRecommendationsPanel(plan.Recommendations, 0); !strings.Contains(got, "(nothing to recommend)") {
		t.Fatalf("unexpected empty recommendations panel %q", got)
	}
	if got := RenderMetricsPanel(plan.Metrics); !strings.Contains(got, "0/100") {
		t.Fatalf("unexpected empty metrics panel %q", got)
	}
}

func TestMarkdownReport(t *testing.T) {
	md := Markdown(fixturePlan(t))
	for _, want := range []string{"# Plan for Monday, 2026-03-02", "| 09:00-10:00 | RESEARCH | 60 | Draft chapter |", "## Conflicts (2)", "fix: `", "## Productivity"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMetricsMarkdownInsights(t *testing.T) {
	md := MetricsMarkdown(metrics.Metrics{
		TaskCompletionRate: 20,
		Insights:           []metrics.Insight{{Kind: metrics.InsightWarning, Title: "Low task completion", Description: "Only 20% of tasks are completed", Suggestion: "Split large tasks"}},
	})
	if !strings.Contains(md, "### Insights") || !strings.Contains(md, "**Low task completion**") {
		t.Fatalf("unexpected metrics markdown:\n%s", md)
	}
}

func TestRenderAppAndMarkdown(t *testing.T) {
	out := RenderApp(AppData{Header: "blockd", LeftPane: "left", RightPane: "right", StatusLine: "error: boom", Footer: "q quit", Width: 100})
	for _, want := range []string{"blockd", "left", "right", "error: boom", "q quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("app view missing %q", want)
		}
	}
	if RenderMarkdown("   ", 80) != "" {
		t.Fatalf("expected empty markdown to render empty")
	}
	if got := RenderMarkdown("# Title", 80); !strings.Contains(got, "Title") {
		t.Fatalf("unexpected rendered markdown %q", got)
	}
	if RenderCommandPalette(false, "x") != "" || RenderCommandPalette(true, "accept 1") != "command: /accept 1" {
		t.Fatalf("unexpected palette rendering")
	}
}
