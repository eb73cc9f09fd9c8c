package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "blockd-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo.WithLocation(time.UTC)
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func newTask(id string, created time.Time) model.Task {
	return model.Task{
		ID:                 id,
		Title:              "Task " + id,
		Priority:           model.PriorityHigh,
		Type:               model.TaskTypeFlexible,
		Status:             model.TaskStatusPending,
		EstimatedPomodoros: 2,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func newBlock(t *testing.T, id, start, end string) model.TimeBlock {
	s := parseRFC3339(t, start)
	return model.TimeBlock{
		ID:        id,
		Date:      model.StartOfDay(s),
		StartTime: s,
		EndTime:   parseRFC3339(t, end),
		BlockType: model.BlockTypeResearch,
		Color:     model.BlockTypeResearch.Color(),
	}
}

func TestTaskCRUDAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	planned := parseRFC3339(t, "2026-02-10T09:00:00Z")

	task := newTask("task-1", created)
	task.Description = "Design storage layout"
	task.PlannedStartTime = &planned
	task.CategoryID = "cat-1"
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Status != model.TaskStatusPending || got.CategoryID != "cat-1" {
		t.Fatalf("unexpected task get result: %#v", got)
	}
	if got.PlannedStartTime == nil || !got.PlannedStartTime.Equal(planned) {
		t.Fatalf("planned start not preserved: %v", got.PlannedStartTime)
	}

	task.Title = "Write schema v2"
	task.Status = model.TaskStatusCompleted
	task.UpdatedAt = created.Add(time.Hour)
	if err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	done, err := repo.ListTasks(ctx, TaskListFilter{Status: model.TaskStatusCompleted})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(done) != 1 || done[0].ID != task.ID || !done[0].UpdatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("unexpected completed list: %#v", done)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	_, err = repo.GetTask(ctx, task.ID)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestBlockAssignmentsKeepOrder(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T08:00:00Z")

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.CreateTask(ctx, newTask(id, created)); err != nil {
			t.Fatalf("create task %s: %v", id, err)
		}
	}
	morning := newBlock(t, "morning", "2026-02-10T09:00:00Z", "2026-02-10T11:00:00Z")
	evening := newBlock(t, "evening", "2026-02-10T18:00:00Z", "2026-02-10T19:00:00Z")
	for _, b := range []model.TimeBlock{morning, evening} {
		if err := repo.CreateBlock(ctx, b); err != nil {
			t.Fatalf("create block %s: %v", b.ID, err)
		}
	}

	for _, id := range []string{"b", "a", "c"} {
		if err := repo.AssignTask(ctx, id, "morning"); err != nil {
			t.Fatalf("assign %s: %v", id, err)
		}
	}
	if err := repo.AssignTask(ctx, "c", "evening"); err != nil {
		t.Fatalf("reassign c: %v", err)
	}

	got, err := repo.GetBlock(ctx, "morning")
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if len(got.ScheduledTasks) != 2 || got.ScheduledTasks[0].ID != "b" || got.ScheduledTasks[1].ID != "a" {
		t.Fatalf("unexpected scheduled tasks: %#v", got.ScheduledTasks)
	}
	task, err := repo.GetTask(ctx, "c")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.ScheduledBlockID != "evening" {
		t.Fatalf("expected c in evening block, got %q", task.ScheduledBlockID)
	}

	if err := repo.AssignTask(ctx, "missing", "morning"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown task, got %v", err)
	}
	if err := repo.UnassignTask(ctx, "a"); err != nil {
		t.Fatalf("unassign: %v", err)
	}

	if err := repo.DeleteBlock(ctx, "evening"); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	task, err = repo.GetTask(ctx, "c")
	if err != nil {
		t.Fatalf("get task after block delete: %v", err)
	}
	if task.ScheduledBlockID != "" {
		t.Fatalf("expected assignment to cascade, got %q", task.ScheduledBlockID)
	}
}

func TestListBlocksByDateAndRecurrence(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := newBlock(t, "first", "2026-02-09T09:00:00Z", "2026-02-09T10:00:00Z")
	second := newBlock(t, "second", "2026-02-11T09:00:00Z", "2026-02-11T10:00:00Z")
	daily := newBlock(t, "daily", "2026-01-01T07:00:00Z", "2026-01-01T07:30:00Z")
	daily.BlockType = model.BlockTypeRest
	daily.Recurrence = &model.RecurrenceRule{
		Type:     model.RecurrenceEveryWeekday,
		Interval: 1,
		Anchor:   daily.StartTime,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}
	for _, b := range []model.TimeBlock{first, second, daily} {
		if err := repo.CreateBlock(ctx, b); err != nil {
			t.Fatalf("create block %s: %v", b.ID, err)
		}
	}

	day := parseRFC3339(t, "2026-02-09T00:00:00Z")
	got, err := repo.ListBlocks(ctx, BlockListFilter{From: day, To: day})
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	if len(got) != 1 || got[0].ID != "first" {
		t.Fatalf("unexpected blocks: %#v", got)
	}

	got, err = repo.ListBlocks(ctx, BlockListFilter{From: day, To: day, IncludeRecurring: true})
	if err != nil {
		t.Fatalf("list blocks with recurrence: %v", err)
	}
	if len(got) != 2 || got[0].ID != "daily" || got[0].Recurrence == nil {
		t.Fatalf("expected recurring block first, got %#v", got)
	}
	if rule := got[0].Recurrence; len(rule.Weekdays) != 2 || rule.Weekdays[1] != time.Wednesday {
		t.Fatalf("weekdays not preserved: %#v", rule)
	}
}

func TestSessionsCategoriesProjects(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	actual := 20

	for i, s := range []model.PomodoroSession{
		{ID: "s1", TaskID: "t1", Status: model.SessionStatusCompleted, PlannedDuration: 25, ActualDuration: &actual, StartTime: created, CreatedAt: created},
		{ID: "s2", TaskID: "t2", Status: model.SessionStatusInterrupted, PlannedDuration: 25, CreatedAt: created.Add(time.Hour)},
	} {
		if err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}
	sessions, err := repo.ListSessions(ctx, SessionListFilter{TaskID: "t1"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ActualDuration == nil || *sessions[0].ActualDuration != 20 {
		t.Fatalf("unexpected sessions: %#v", sessions)
	}
	later, err := repo.ListSessions(ctx, SessionListFilter{Since: created.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("list sessions since: %v", err)
	}
	if len(later) != 1 || later[0].ID != "s2" || !later[0].StartTime.IsZero() {
		t.Fatalf("unexpected sessions since: %#v", later)
	}

	if err := repo.UpsertCategory(ctx, model.Category{ID: "c1", Name: "Work"}); err != nil {
		t.Fatalf("upsert category: %v", err)
	}
	if err := repo.UpsertCategory(ctx, model.Category{ID: "c1", Name: "Study", Kind: model.CategoryLearning}); err != nil {
		t.Fatalf("upsert category again: %v", err)
	}
	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Study" || cats[0].Kind != model.CategoryLearning {
		t.Fatalf("unexpected categories: %#v", cats)
	}

	if err := repo.UpsertProject(ctx, model.Project{ID: "p1", Name: "Thesis"}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Priority != model.PriorityMedium {
		t.Fatalf("expected default priority, got %#v", projects)
	}
}

func TestImportAndLoadSnapshot(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	a := newTask("a", created)
	b := newTask("b", created)
	b.ScheduledBlockID = "blk"
	broken := newTask("broken", created)
	broken.EstimatedPomodoros = 0
	block := newBlock(t, "blk", "2026-02-10T09:00:00Z", "2026-02-10T10:00:00Z")
	block.ScheduledTasks = []model.Task{a}
	bad := model.TimeBlock{ID: "bad", BlockType: model.BlockTypeRest}

	snap := model.Snapshot{
		Tasks:      []model.Task{a, b, broken},
		Blocks:     []model.TimeBlock{block, bad},
		Sessions:   []model.PomodoroSession{{ID: "s", TaskID: "a", Status: model.SessionStatusCompleted, PlannedDuration: 25, CreatedAt: created}},
		Categories: []model.Category{{ID: "c", Name: "Work"}},
		Projects:   []model.Project{{ID: "p", Name: "Launch", Priority: model.PriorityHigh}},
	}
	stats, err := repo.ImportSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := ImportStats{Tasks: 2, Blocks: 1, Sessions: 1, Categories: 1, Projects: 1, Assignments: 2}
	if stats != want {
		t.Fatalf("unexpected stats %+v, want %+v", stats, want)
	}

	// Importing twice is an upsert, not a duplicate.
	if _, err := repo.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("second import: %v", err)
	}

	loaded, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Tasks) != 2 || len(loaded.Blocks) != 1 || len(loaded.Sessions) != 1 {
		t.Fatalf("unexpected snapshot sizes: %d tasks %d blocks %d sessions", len(loaded.Tasks), len(loaded.Blocks), len(loaded.Sessions))
	}
	if got := loaded.Blocks[0].ScheduledTasks; len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected block tasks: %#v", got)
	}
	if p, ok := loaded.Project("p"); !ok || p.Priority != model.PriorityHigh {
		t.Fatalf("project not loaded: %#v", p)
	}
}
