package advisor

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/interval"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func block(id string, bt model.BlockType, sh, sm, eh, em int) model.TimeBlock {
	return model.TimeBlock{ID: id, Date: day, StartTime: at(sh, sm), EndTime: at(eh, em), BlockType: bt}
}

func task(id string, pomodoros int, category string) model.Task {
	return model.Task{
		ID:                 id,
		Title:              "task " + id,
		Priority:           model.PriorityMedium,
		Type:               model.TaskTypeFlexible,
		Status:             model.TaskStatusPending,
		EstimatedPomodoros: pomodoros,
		CategoryID:         category,
		CreatedAt:          day,
	}
}

func byAction(recs []recommend.Recommendation, kind recommend.ActionKind) []recommend.Recommendation {
	out := make([]recommend.Recommendation, 0)
	for _, r := range recs {
		if r.Action.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestGapOfFortyFiveMinutesFitsOnePomodoro(t *testing.T) {
	blocks := []model.TimeBlock{
		block("b2", model.BlockTypeReview, 10, 45, 11, 30),
		block("b1", model.BlockTypeRest, 9, 0, 10, 0),
	}
	recs := Advise(Input{Blocks: blocks, Now: day})
	got := byAction(recs, recommend.ActionFillGap)
	if len(got) != 1 {
		t.Fatalf("expected one gap suggestion, got %d", len(got))
	}
	if got[0].Score != 40 || got[0].Type != recommend.TypeTime {
		t.Fatalf("unexpected gap suggestion %+v", got[0])
	}
	if !strings.Contains(got[0].Action.Description, "1-pomodoro") {
		t.Fatalf("expected a 1-pomodoro fill, got %q", got[0].Action.Description)
	}
	if len(got[0].Action.Commands) != 0 {
		t.Fatalf("no pending task means nothing to schedule")
	}
}

func TestGapBoundsAndFillCommand(t *testing.T) {
	blocks := []model.TimeBlock{
		block("a", model.BlockTypeResearch, 8, 0, 9, 0),
		block("b", model.BlockTypeResearch, 9, 20, 10, 0),  // 20 min: too small
		block("c", model.BlockTypeResearch, 11, 30, 12, 0), // 90 min: fits
		block("d", model.BlockTypeResearch, 14, 0, 15, 0),  // 120 min: too large
	}
	pending := []model.Task{task("big", 4, ""), task("small", 2, "")}
	recs := Advise(Input{Pending: pending, Blocks: blocks, Now: day})
	got := byAction(recs, recommend.ActionFillGap)
	if len(got) != 1 {
		t.Fatalf("expected one gap suggestion, got %d", len(got))
	}
	if got[0].Task == nil || got[0].Task.ID != "small" {
		t.Fatalf("expected the small task to fill the gap")
	}
	cmd := got[0].Action.Commands[0]
	if cmd.Type != commands.TypeCreateBlock || !cmd.CreateBlock.Start.Equal(at(10, 0)) || !cmd.CreateBlock.End.Equal(at(10, 50)) {
		t.Fatalf("unexpected fill command %+v", cmd.CreateBlock)
	}
}

func TestOverloadWarning(t *testing.T) {
	blocks := []model.TimeBlock{block("a", model.BlockTypeResearch, 9, 0, 10, 0)}
	pending := []model.Task{task("x", 2, ""), task("y", 1, "")} // 75 > 48
	recs := Advise(Input{Pending: pending, Blocks: blocks, Now: day})
	got := byAction(recs, recommend.ActionOptimizeSchedule)
	if len(got) != 1 || got[0].Score != 70 {
		t.Fatalf("expected one overload warning, got %+v", got)
	}

	pending = []model.Task{task("x", 1, "")} // 25 <= 48
	if got := byAction(Advise(Input{Pending: pending, Blocks: blocks, Now: day}), recommend.ActionOptimizeSchedule); len(got) != 0 {
		t.Fatalf("did not expect an overload warning")
	}
}

func TestBatchingGroupsByCategoryName(t *testing.T) {
	snap := model.Snapshot{Categories: []model.Category{{ID: "c1", Name: "Writing"}}}
	pending := []model.Task{
		task("a", 1, "c1"),
		task("b", 1, ""),
		task("c", 1, "c1"),
		task("d", 1, "missing"),
		task("e", 1, "other"),
	}
	recs := Advise(Input{Pending: pending, Snapshot: snap, Blocks: []model.TimeBlock{block("z", model.BlockTypeRest, 8, 0, 18, 0)}, Now: day})
	got := byAction(recs, recommend.ActionBatchProcess)
	if len(got) != 2 {
		t.Fatalf("expected two batches, got %d", len(got))
	}
	if got[0].Title != "Batch Writing tasks" || got[1].Title != "Batch uncategorized tasks" {
		t.Fatalf("unexpected batches %q, %q", got[0].Title, got[1].Title)
	}
	if !strings.HasPrefix(got[1].Description, "3 ") {
		t.Fatalf("expected three uncategorized tasks, got %q", got[1].Description)
	}
}

func TestRestAfterThreeContiguousFocusBlocks(t *testing.T) {
	blocks := []model.TimeBlock{
		block("a", model.BlockTypeResearch, 8, 0, 9, 0),
		block("b", model.BlockTypeGrowth, 9, 5, 10, 0),
		block("c", model.BlockTypeResearch, 10, 10, 11, 0),
	}
	got := byAction(Advise(Input{Blocks: blocks, Now: day}), recommend.ActionScheduleRest)
	if len(got) != 1 || got[0].Score != 60 {
		t.Fatalf("expected one rest suggestion, got %+v", got)
	}

	// A rest block in the middle breaks the run.
	blocks[1].BlockType = model.BlockTypeRest
	if got := byAction(Advise(Input{Blocks: blocks, Now: day}), recommend.ActionScheduleRest); len(got) != 0 {
		t.Fatalf("did not expect a rest suggestion")
	}

	// So does a long pause.
	blocks[1].BlockType = model.BlockTypeGrowth
	blocks[2].StartTime = at(10, 30)
	if got := byAction(Advise(Input{Blocks: blocks, Now: day}), recommend.ActionScheduleRest); len(got) != 0 {
		t.Fatalf("did not expect a rest suggestion after a 30-minute pause")
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Advise(Input{Now: day}); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(got))
	}
}

func TestGapIgnoresTimeCoveredByLongerBlock(t *testing.T) {
	blocks := []model.TimeBlock{
		block("a", model.BlockTypeResearch, 9, 0, 12, 0),
		block("b", model.BlockTypeReview, 9, 30, 10, 0),
		block("c", model.BlockTypeReview, 10, 45, 11, 30),
		block("d", model.BlockTypeGrowth, 12, 45, 13, 30),
	}
	recs := Advise(Input{Pending: []model.Task{task("t", 1, "")}, Blocks: blocks, Now: day})
	got := byAction(recs, recommend.ActionFillGap)
	if len(got) != 1 {
		t.Fatalf("expected only the gap after the long block, got %d", len(got))
	}
	if got[0].EstimatedMinutes != 45 || !strings.HasPrefix(got[0].Description, "12:00 - 12:45") {
		t.Fatalf("unexpected gap %q", got[0].Description)
	}
	cmd := got[0].Action.Commands[0]
	fill := model.TimeBlock{ID: "fill", StartTime: cmd.CreateBlock.Start, EndTime: cmd.CreateBlock.End, BlockType: cmd.CreateBlock.BlockType}
	for _, b := range blocks {
		fi, _ := fill.Interval()
		bi, _ := b.Interval()
		if interval.Overlaps(fi, bi) {
			t.Fatalf("fill block %s-%s overlaps block %s", fill.StartTime.Format("15:04"), fill.EndTime.Format("15:04"), b.ID)
		}
	}
}
