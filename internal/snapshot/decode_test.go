package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

const export = `{
  "categories": [
    {"id": "c-work", "name": "Work", "color": "#1890ff"},
    {"id": "c-odd", "name": "Gardening", "kind": "life"},
    {"name": "no id"}
  ],
  "projects": [
    {"id": "p-1", "name": "Thesis", "priority": "high"},
    {"id": "p-2", "name": "Misc", "priority": "sometimes"}
  ],
  "tasks": [
    {"id": "t-1", "title": "Write intro", "priority": "HIGH", "task_type": "FLEXIBLE",
     "status": "PENDING", "estimated_pomodoros": 3, "planned_start_time": "2026-03-03T09:00:00",
     "category_id": "c-work", "project_id": "p-1",
     "created_at": "2026-03-01T08:00:00.123456", "updated_at": "2026-03-01T08:30:00Z"},
    {"id": "t-2", "title": "Bad time", "estimated_pomodoros": 1,
     "planned_start_time": "next tuesday", "created_at": "2026-03-01T08:00:00"},
    {"id": "t-3", "title": "No estimate", "estimated_pomodoros": 0, "created_at": "2026-03-01T08:00:00"},
    {"id": "t-4", "title": "Defaults", "estimated_pomodoros": 1, "created_at": "2026-03-01 10:00:00"}
  ],
  "time_blocks": [
    {"id": "b-1", "date": "2026-03-02", "start_time": "2026-03-02T09:00:00", "end_time": "2026-03-02T10:00:00",
     "block_type": "RESEARCH", "scheduled_tasks": ["t-1"]},
    {"id": "b-2", "date": "2026-03-02", "start_time": "2026-03-02T11:00:00", "end_time": "2026-03-02T10:00:00",
     "block_type": "GROWTH"},
    {"id": "b-3", "start_time": "2026-03-02T13:00:00+02:00", "end_time": "2026-03-02T14:00:00+02:00",
     "block_type": "review", "is_recurring": true, "recurrence_pattern": "every_n_days:2"},
    {"id": "b-4", "start_time": "2026-03-02T15:00:00", "end_time": "2026-03-02T16:00:00",
     "block_type": "REST", "recurrence": {"type": "every_weekday", "interval": 1, "weekdays": ["mon", 3]}},
    {"id": "b-5", "start_time": "2026-03-02T17:00:00", "end_time": "2026-03-02T18:00:00",
     "block_type": "NAP"}
  ],
  "pomodoro_sessions": [
    {"id": "s-1", "task_id": "t-1", "status": "COMPLETED", "planned_duration": 25, "actual_duration": 22,
     "start_time": "2026-03-02T09:00:00", "created_at": "2026-03-02T09:00:00"},
    {"id": "s-2", "task_id": "t-1", "status": "COMPLETED", "planned_duration": 25, "actual_duration": null,
     "created_at": "2026-03-02T10:00:00"},
    {"id": "s-3", "task_id": "t-1", "status": "PAUSED", "planned_duration": 25, "created_at": "2026-03-02T10:00:00"}
  ]
}`

func TestDecodeKeepsValidRecords(t *testing.T) {
	snap, report, err := Decode([]byte(export), Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if report.Categories != 2 || report.Projects != 2 || report.Tasks != 2 || report.Blocks != 3 || report.Sessions != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Skipped["tasks"] != 2 || report.Skipped["time_blocks"] != 2 || report.Skipped["pomodoro_sessions"] != 1 || report.Skipped["categories"] != 1 {
		t.Fatalf("unexpected skip counts %+v", report.Skipped)
	}
	if report.SkippedTotal() != 6 {
		t.Fatalf("expected six skipped records, got %d", report.SkippedTotal())
	}

	if snap.Categories[0].Kind != model.CategoryWork || snap.Categories[1].Kind != model.CategoryLife {
		t.Fatalf("unexpected category kinds %+v", snap.Categories)
	}
	if snap.Projects[0].Priority != model.PriorityHigh || snap.Projects[1].Priority != "" {
		t.Fatalf("unexpected project priorities %+v", snap.Projects)
	}
}

func TestDecodeTaskFields(t *testing.T) {
	snap, _, err := Decode([]byte(export), Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	task := snap.Tasks[0]
	if task.ID != "t-1" || task.Priority != model.PriorityHigh || task.EstimatedPomodoros != 3 {
		t.Fatalf("unexpected task %+v", task)
	}
	wantPlanned := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	if task.PlannedStartTime == nil || !task.PlannedStartTime.Equal(wantPlanned) {
		t.Fatalf("unexpected planned start %v", task.PlannedStartTime)
	}
	if task.CreatedAt.Nanosecond() != 123456000 {
		t.Fatalf("expected fractional seconds to survive, got %v", task.CreatedAt)
	}

	defaults := snap.Tasks[1]
	if defaults.Status != model.TaskStatusPending || defaults.Type != model.TaskTypeFlexible || defaults.Priority != model.PriorityMedium {
		t.Fatalf("unexpected defaults %+v", defaults)
	}
	if !defaults.UpdatedAt.Equal(defaults.CreatedAt) {
		t.Fatalf("expected updated_at to default to created_at")
	}
}

func TestDecodeBlocks(t *testing.T) {
	snap, _, err := Decode([]byte(export), Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	first := snap.Blocks[0]
	if first.DurationMinutes() != 60 || first.Color != model.BlockTypeResearch.Color() {
		t.Fatalf("unexpected first block %+v", first)
	}
	if len(first.ScheduledTasks) != 1 || first.ScheduledTasks[0].ID != "t-1" {
		t.Fatalf("unexpected scheduled tasks %+v", first.ScheduledTasks)
	}

	recurring := snap.Blocks[1]
	if recurring.BlockType != model.BlockTypeReview || recurring.Recurrence == nil {
		t.Fatalf("expected recurring review block, got %+v", recurring)
	}
	if recurring.Recurrence.Type != model.RecurrenceEveryNDays || recurring.Recurrence.Interval != 2 {
		t.Fatalf("unexpected rule %+v", recurring.Recurrence)
	}
	if !recurring.Date.Equal(model.StartOfDay(recurring.StartTime)) {
		t.Fatalf("expected date from start time, got %v", recurring.Date)
	}

	weekly := snap.Blocks[2].Recurrence
	if weekly == nil || weekly.Type != model.RecurrenceEveryWeekday || len(weekly.Weekdays) != 2 || weekly.Weekdays[1] != time.Wednesday {
		t.Fatalf("unexpected weekday rule %+v", weekly)
	}
}

func TestDecodeSessions(t *testing.T) {
	snap, _, err := Decode([]byte(export), Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := snap.Sessions[0].ActualDuration; got == nil || *got != 22 {
		t.Fatalf("unexpected actual duration %v", got)
	}
	if snap.Sessions[1].ActualDuration != nil {
		t.Fatalf("expected null actual duration to stay nil")
	}
	if !snap.Sessions[1].StartTime.IsZero() {
		t.Fatalf("expected missing start time to stay zero")
	}
}

func TestDecodeAcceptsTaskArray(t *testing.T) {
	snap, report, err := Decode([]byte(`[{"id":"a","title":"A","estimated_pomodoros":2,"created_at":"2026-03-01T08:00:00Z"}]`), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Tasks) != 1 || report.Tasks != 1 {
		t.Fatalf("expected one task, got %+v", report)
	}
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	cases := []string{`{"tasks": [`, `"just a string"`, ``}
	for _, in := range cases {
		if _, _, err := Decode([]byte(in), Options{}); !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("input %q: expected ErrInvalidJSON, got %v", in, err)
		}
	}
}

func TestParseTimeLayouts(t *testing.T) {
	loc := time.FixedZone("test", 3600)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-02T09:15:00Z", time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)},
		{"2026-03-02T09:15:00", time.Date(2026, 3, 2, 9, 15, 0, 0, loc)},
		{"2026-03-02 09:15", time.Date(2026, 3, 2, 9, 15, 0, 0, loc)},
	}
	for _, tc := range cases {
		got, err := ParseTime(tc.in, loc)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q: got %v want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTime("03/02/2026", loc); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(export), 0o600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	snap, _, err := ReadFile(path, Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("expected two tasks, got %d", len(snap.Tasks))
	}
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"), Options{}); err == nil {
		t.Fatalf("expected missing file error")
	}
}
