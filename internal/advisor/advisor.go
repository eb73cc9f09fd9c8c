// Package advisor derives schedule-level suggestions for a day: overload
// warnings, fillable gaps, batchable tasks and rest breaks.
package advisor

import (
	"fmt"
	"sort"
	"time"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/interval"
	"github.com/sandeepkv93/blockd/internal/match"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

const (
	overloadRatio  = 0.8
	minGapMinutes  = 30
	maxGapMinutes  = 90
	minBatchSize   = 2
	restRunLength  = 3
	restGapMinutes = 15

	overloadPoints = 70
	restPoints     = 60
	batchPoints    = 50
	gapPoints      = 40
)

type Input struct {
	Pending []model.Task
	Blocks  []model.TimeBlock
	// Snapshot resolves category names for batching.
	Snapshot model.Snapshot
	Now      time.Time
}

// Advise returns suggestions in a fixed order: overload, gaps, batches, rest.
// Ranking against task recommendations happens in recommend.Merge.
func Advise(in Input) []recommend.Recommendation {
	pending := make([]model.Task, 0, len(in.Pending))
	for _, t := range in.Pending {
		if t.Schedulable() {
			pending = append(pending, t)
		}
	}
	blocks := sortedBlocks(in.Blocks)

	out := make([]recommend.Recommendation, 0)
	if rec, ok := overload(pending, blocks, in.Now); ok {
		out = append(out, rec)
	}
	out = append(out, gaps(pending, blocks, in)...)
	out = append(out, batches(pending, in)...)
	if rec, ok := rest(blocks, in.Now); ok {
		out = append(out, rec)
	}
	return out
}

// sortedBlocks keeps valid blocks ordered by start, then ID.
func sortedBlocks(blocks []model.TimeBlock) []model.TimeBlock {
	out := make([]model.TimeBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Valid() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func overload(pending []model.Task, blocks []model.TimeBlock, now time.Time) (recommend.Recommendation, bool) {
	needed := 0
	for _, t := range pending {
		needed += t.RequiredMinutes()
	}
	available := 0
	for _, b := range blocks {
		available += b.DurationMinutes()
	}
	if needed == 0 || float64(needed) <= overloadRatio*float64(available) {
		return recommend.Recommendation{}, false
	}

	rec := recommend.New(recommend.TypeTime, "overload", overloadPoints, now)
	rec.Title = "Schedule is over capacity"
	rec.Description = fmt.Sprintf("Pending tasks need %d minutes but only %d minutes are blocked out", needed, available)
	rec.EstimatedMinutes = needed
	rec.Reasons = []string{"too many tasks", "not enough time"}
	rec.Action = recommend.Action{
		Kind:        recommend.ActionOptimizeSchedule,
		Text:        "Rebalance the schedule",
		Description: "Lower task priorities or add time blocks",
	}
	return rec, true
}

func gaps(pending []model.Task, blocks []model.TimeBlock, in Input) []recommend.Recommendation {
	out := make([]recommend.Recommendation, 0)
	used := make(map[string]bool)
	if len(blocks) == 0 {
		return out
	}
	// a is the block reaching furthest so far; a gap only exists once every
	// earlier block has ended.
	a := blocks[0]
	for _, b := range blocks[1:] {
		prev := a
		ia, _ := prev.Interval()
		ib, _ := b.Interval()
		if b.EndTime.After(a.EndTime) {
			a = b
		}
		gap, ok := interval.GapMinutes(ia, ib)
		if !ok || gap < minGapMinutes || gap > maxGapMinutes {
			continue
		}
		pomodoros := gap / model.PomodoroMinutes

		rec := recommend.New(recommend.TypeTime, "gap:"+prev.ID+":"+b.ID, gapPoints, in.Now)
		rec.Title = "Free time between blocks"
		rec.Description = fmt.Sprintf("%s - %s has %d free minutes", ia.End.Format("15:04"), ib.Start.Format("15:04"), gap)
		rec.EstimatedMinutes = gap
		rec.Reasons = []string{"unused gap", "small tasks fit here"}
		rec.Action = recommend.Action{
			Kind:        recommend.ActionFillGap,
			Text:        "Fit in a small task",
			Description: fmt.Sprintf("Room for a %d-pomodoro task", pomodoros),
		}
		if task, ok := fillerTask(pending, gap, used); ok {
			used[task.ID] = true
			taskCopy := task
			rec.Task = &taskCopy
			rec.Action.Description = fmt.Sprintf("Room for a %d-pomodoro task such as %q", pomodoros, task.Title)
			rec.Action.Commands = []commands.Command{fillCommand(task, ia.End, ib.Start, in.Snapshot)}
		}
		out = append(out, rec)
	}
	return out
}

// fillerTask picks the first unscheduled task that fits in gap minutes.
func fillerTask(pending []model.Task, gap int, used map[string]bool) (model.Task, bool) {
	for _, t := range pending {
		if t.ScheduledBlockID != "" || used[t.ID] {
			continue
		}
		if t.RequiredMinutes() <= gap {
			return t, true
		}
	}
	return model.Task{}, false
}

func fillCommand(task model.Task, start, end time.Time, snap model.Snapshot) commands.Command {
	kind := model.CategoryKind("")
	if c, ok := snap.Category(task.CategoryID); ok {
		kind = c.EffectiveKind()
	}
	bt := match.PreferredBlockType(kind)
	return commands.CreateBlock(commands.CreateBlockArgs{
		Date:      model.StartOfDay(start),
		Start:     start,
		End:       start.Add(time.Duration(task.RequiredMinutes()) * time.Minute),
		BlockType: bt,
		Color:     bt.Color(),
		TaskID:    task.ID,
	})
}

func batches(pending []model.Task, in Input) []recommend.Recommendation {
	order := make([]string, 0)
	groups := make(map[string][]model.Task)
	for _, t := range pending {
		name := in.Snapshot.CategoryName(t)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], t)
	}

	out := make([]recommend.Recommendation, 0)
	for _, name := range order {
		tasks := groups[name]
		if len(tasks) < minBatchSize {
			continue
		}
		minutes := 0
		for _, t := range tasks {
			minutes += t.RequiredMinutes()
		}
		rec := recommend.New(recommend.TypeEfficiency, "batch:"+name, batchPoints, in.Now)
		rec.Title = fmt.Sprintf("Batch %s tasks", name)
		rec.Description = fmt.Sprintf("%d %s tasks can be handled together", len(tasks), name)
		rec.EstimatedMinutes = minutes
		rec.Reasons = []string{"batching is efficient", "fewer context switches"}
		rec.Action = recommend.Action{
			Kind:        recommend.ActionBatchProcess,
			Text:        "Schedule back to back",
			Description: "Put these tasks in consecutive time blocks",
		}
		out = append(out, rec)
	}
	return out
}

// rest looks for runs of focus blocks separated by less than restGapMinutes.
// One suggestion covers the longest run.
func rest(blocks []model.TimeBlock, now time.Time) (recommend.Recommendation, bool) {
	bestLen, bestStart := 0, 0
	runLen, runStart := 0, 0
	for i, b := range blocks {
		if !b.BlockType.IsFocus() {
			runLen = 0
			continue
		}
		if runLen > 0 && !closeTogether(blocks[i-1], b) {
			runLen = 0
		}
		if runLen == 0 {
			runStart = i
		}
		runLen++
		if runLen > bestLen {
			bestLen, bestStart = runLen, runStart
		}
	}
	if bestLen < restRunLength {
		return recommend.Recommendation{}, false
	}

	first, last := blocks[bestStart], blocks[bestStart+bestLen-1]
	rec := recommend.New(recommend.TypeEfficiency, "rest:"+first.ID, restPoints, now)
	rec.Title = "Take a break"
	rec.Description = fmt.Sprintf("%d focus blocks in a row from %s to %s", bestLen, first.StartTime.Format("15:04"), last.EndTime.Format("15:04"))
	rec.Reasons = []string{"avoid fatigue", "keep focus sharp"}
	rec.Action = recommend.Action{
		Kind:        recommend.ActionScheduleRest,
		Text:        "Schedule a rest",
		Description: "Insert 5-15 minutes of rest between focus blocks",
	}
	return rec, true
}

func closeTogether(a, b model.TimeBlock) bool {
	ia, _ := a.Interval()
	ib, _ := b.Interval()
	gap, ok := interval.GapMinutes(ia, ib)
	return !ok || gap < restGapMinutes
}
