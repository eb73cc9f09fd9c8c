// Package conflict finds scheduling problems among the time blocks of a day:
// overlapping blocks, tasks that do not fit their block, and overloaded
// blocks.
package conflict

import (
	"fmt"
	"sort"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/interval"
	"github.com/sandeepkv93/blockd/internal/model"
)

type Type string

const (
	TypeTimeOverlap      Type = "time_overlap"
	TypeTaskDuration     Type = "task_duration"
	TypeResourceOverload Type = "resource_overload"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type Conflict struct {
	Type        Type
	Severity    Severity
	Message     string
	Blocks      []model.TimeBlock
	Task        *model.Task
	Suggestions []string
	AutoFixable bool
	// Fix is set exactly when AutoFixable is true.
	Fix *commands.Command
}

type Histogram struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (h *Histogram) add(s Severity) {
	switch s {
	case SeverityCritical:
		h.Critical++
	case SeverityHigh:
		h.High++
	case SeverityMedium:
		h.Medium++
	case SeverityLow:
		h.Low++
	}
}

func (h Histogram) Total() int {
	return h.Critical + h.High + h.Medium + h.Low
}

type Result struct {
	Conflicts []Conflict
	Histogram Histogram
	// Skipped counts blocks left out because their timestamps are unusable.
	Skipped int
}

type Options struct {
	// MaxTasksPerBlock enables the overload check when positive.
	MaxTasksPerBlock int
}

func DefaultOptions() Options {
	return Options{MaxTasksPerBlock: 3}
}

const (
	overlapEscalationRatio = 0.5
	overloadHighExtra      = 2
)

// Detect scans the blocks of one day. Input order decides the order of
// equally severe conflicts.
func Detect(blocks []model.TimeBlock, opts Options) Result {
	valid := make([]model.TimeBlock, 0, len(blocks))
	spans := make([]interval.Interval, 0, len(blocks))
	res := Result{}
	for _, b := range blocks {
		iv, err := b.Interval()
		if err != nil {
			res.Skipped++
			continue
		}
		valid = append(valid, b)
		spans = append(spans, iv)
	}

	out := make([]Conflict, 0)
	out = append(out, detectOverlaps(valid, spans)...)
	out = append(out, detectDurationMismatches(valid)...)
	if opts.MaxTasksPerBlock > 0 {
		out = append(out, detectOverloads(valid, opts.MaxTasksPerBlock)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	for _, c := range out {
		res.Histogram.add(c.Severity)
	}
	res.Conflicts = out
	return res
}

func detectOverlaps(blocks []model.TimeBlock, spans []interval.Interval) []Conflict {
	out := make([]Conflict, 0)
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			if !interval.Overlaps(spans[i], spans[j]) {
				continue
			}
			a, b := blocks[i], blocks[j]
			overlap := interval.OverlapMinutes(spans[i], spans[j])
			shorter := spans[i].Minutes()
			if m := spans[j].Minutes(); m < shorter {
				shorter = m
			}

			severity := SeverityMedium
			if (a.BlockType.IsFocus() || b.BlockType.IsFocus()) && float64(overlap) > overlapEscalationRatio*float64(shorter) {
				severity = SeverityHigh
			}

			out = append(out, Conflict{
				Type:     TypeTimeOverlap,
				Severity: severity,
				Message:  fmt.Sprintf("%s block overlaps %s block by %d minutes", a.BlockType, b.BlockType, overlap),
				Blocks:   []model.TimeBlock{a, b},
				Suggestions: []string{
					fmt.Sprintf("move the %s block to end before %s", a.BlockType, b.StartTime.Format("15:04")),
					fmt.Sprintf("move the %s block to start after %s", b.BlockType, a.EndTime.Format("15:04")),
					"merge both blocks into one longer block",
					"remove the less important block",
				},
			})
		}
	}
	return out
}

func detectDurationMismatches(blocks []model.TimeBlock) []Conflict {
	out := make([]Conflict, 0)
	for _, block := range blocks {
		capacity := block.DurationMinutes()
		violations := make([]model.Task, 0)
		for _, task := range block.ScheduledTasks {
			if task.EstimatedPomodoros < 1 {
				continue
			}
			if task.RequiredMinutes() > capacity {
				violations = append(violations, task)
			}
		}
		for _, task := range violations {
			task := task
			shortfall := task.RequiredMinutes() - capacity
			c := Conflict{
				Type:     TypeTaskDuration,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("task %q needs %d minutes but the %s block has %d (short by %d)",
					task.Title, task.RequiredMinutes(), block.BlockType, capacity, shortfall),
				Blocks: []model.TimeBlock{block},
				Task:   &task,
				Suggestions: []string{
					fmt.Sprintf("split %q across several blocks", task.Title),
					fmt.Sprintf("extend the %s block by %d minutes", block.BlockType, shortfall),
					fmt.Sprintf("reduce the estimate of %q", task.Title),
					"move the task to a longer block",
				},
			}
			if len(violations) == 1 {
				if fix, ok := durationFix(task, block, blocks); ok {
					c.AutoFixable = true
					c.Fix = &fix
				}
			}
			out = append(out, c)
		}
	}
	return out
}

// durationFix prefers moving the task to the earliest other block that can
// hold it, and otherwise shrinks the estimate to what the block can hold.
func durationFix(task model.Task, block model.TimeBlock, day []model.TimeBlock) (commands.Command, bool) {
	required := task.RequiredMinutes()
	for _, other := range day {
		if other.ID == block.ID || other.ID == "" {
			continue
		}
		if other.DurationMinutes() >= required {
			return commands.AssignTask(task.ID, other.ID), true
		}
	}
	fits := block.DurationMinutes() / model.PomodoroMinutes
	if fits >= 1 && fits < task.EstimatedPomodoros {
		return commands.UpdateEstimate(task.ID, fits), true
	}
	return commands.Command{}, false
}

func detectOverloads(blocks []model.TimeBlock, limit int) []Conflict {
	out := make([]Conflict, 0)
	for _, block := range blocks {
		n := len(block.ScheduledTasks)
		if n <= limit {
			continue
		}
		severity := SeverityMedium
		if n > limit+overloadHighExtra {
			severity = SeverityHigh
		}
		out = append(out, Conflict{
			Type:     TypeResourceOverload,
			Severity: severity,
			Message:  fmt.Sprintf("%s block holds %d tasks and may be overloaded", block.BlockType, n),
			Blocks:   []model.TimeBlock{block},
			Suggestions: []string{
				"move some tasks to other blocks",
				fmt.Sprintf("extend the %s block", block.BlockType),
				"finish the most important task first",
			},
		})
	}
	return out
}
