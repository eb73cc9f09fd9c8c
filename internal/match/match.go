// Package match finds the time block that suits a task best.
package match

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

const (
	baseSuitability    = 0.5
	proximityMaxBonus  = 0.3
	proximityDecayHour = 0.05
	affinityWeight     = 0.2
	// DefaultAffinity applies when the category kind has no entry for a block type.
	DefaultAffinity = 0.5
	// DefaultStartHour is where proposed blocks start when the task has no
	// planned time on the target date.
	DefaultStartHour = 9
)

// affinity scores how well a block type serves a category kind.
var affinity = map[model.CategoryKind]map[model.BlockType]float64{
	model.CategoryWork: {
		model.BlockTypeResearch: 0.9,
		model.BlockTypeGrowth:   0.7,
		model.BlockTypeReview:   0.8,
	},
	model.CategoryLearning: {
		model.BlockTypeResearch: 0.9,
		model.BlockTypeGrowth:   0.9,
		model.BlockTypeReview:   0.7,
	},
	model.CategoryLife: {
		model.BlockTypeRest:          0.9,
		model.BlockTypeEntertainment: 0.8,
	},
	model.CategoryRest: {
		model.BlockTypeRest:          0.9,
		model.BlockTypeEntertainment: 0.7,
	},
	model.CategoryReview: {
		model.BlockTypeReview: 0.9,
		model.BlockTypeGrowth: 0.6,
	},
}

// Affinity looks up the table, falling back to DefaultAffinity.
func Affinity(kind model.CategoryKind, blockType model.BlockType) float64 {
	if row, ok := affinity[kind]; ok {
		if v, ok := row[blockType]; ok {
			return v
		}
	}
	return DefaultAffinity
}

// PreferredBlockType is the block type with the highest affinity for kind.
func PreferredBlockType(kind model.CategoryKind) model.BlockType {
	row, ok := affinity[kind]
	if !ok {
		return model.BlockTypeResearch
	}
	best := model.BlockTypeResearch
	bestScore := -1.0
	for _, bt := range []model.BlockType{
		model.BlockTypeResearch,
		model.BlockTypeGrowth,
		model.BlockTypeReview,
		model.BlockTypeRest,
		model.BlockTypeEntertainment,
	} {
		if v, ok := row[bt]; ok && v > bestScore {
			best, bestScore = bt, v
		}
	}
	return best
}

// Context carries what matching needs beyond the task and the blocks.
type Context struct {
	// Date is the target day; its midnight is the preferred time for tasks
	// without a planned start.
	Date time.Time
	// CategoryKind is empty when the task has no resolvable category.
	CategoryKind model.CategoryKind
}

type Level string

const (
	LevelExcellent  Level = "excellent"
	LevelGood       Level = "good"
	LevelFair       Level = "fair"
	LevelPoor       Level = "poor"
	LevelUnsuitable Level = "unsuitable"
)

func LevelFor(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelExcellent
	case score >= 0.7:
		return LevelGood
	case score >= 0.5:
		return LevelFair
	case score >= 0.3:
		return LevelPoor
	default:
		return LevelUnsuitable
	}
}

type Match struct {
	Block       model.TimeBlock
	Suitability float64
	Level       Level
	Reason      string
}

// Rank scores every block long enough for the task, best first, and keeps
// at most topK (all when topK <= 0).
func Rank(task model.Task, blocks []model.TimeBlock, ctx Context, topK int) []Match {
	required := task.RequiredMinutes()
	preferred := model.StartOfDay(ctx.Date)
	if task.PlannedStartTime != nil && !task.PlannedStartTime.IsZero() {
		preferred = *task.PlannedStartTime
	}

	out := make([]Match, 0, len(blocks))
	for _, b := range blocks {
		if !b.Valid() || b.DurationMinutes() < required {
			continue
		}
		score := Suitability(b, preferred, ctx.CategoryKind)
		out = append(out, Match{
			Block:       b,
			Suitability: score,
			Level:       LevelFor(score),
			Reason:      reason(b, required),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suitability != out[j].Suitability {
			return out[i].Suitability > out[j].Suitability
		}
		if !out[i].Block.StartTime.Equal(out[j].Block.StartTime) {
			return out[i].Block.StartTime.Before(out[j].Block.StartTime)
		}
		return out[i].Block.ID < out[j].Block.ID
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Best returns the top candidate; ok is false when no block is long enough.
func Best(task model.Task, blocks []model.TimeBlock, ctx Context) (Match, bool) {
	ranked := Rank(task, blocks, ctx, 1)
	if len(ranked) == 0 {
		return Match{}, false
	}
	return ranked[0], true
}

// Suitability = 0.5 + proximity bonus + affinity*0.2, capped at 1. The
// affinity term is left out for uncategorized tasks (empty kind).
func Suitability(b model.TimeBlock, preferred time.Time, kind model.CategoryKind) float64 {
	hours := math.Abs(b.StartTime.Sub(preferred).Hours())
	score := baseSuitability
	score += math.Max(0, proximityMaxBonus-hours*proximityDecayHour)
	if kind != "" {
		score += Affinity(kind, b.BlockType) * affinityWeight
	}
	score = math.Min(1, score)
	// keep results stable across platforms when compared or printed
	return math.Round(score*1e6) / 1e6
}

func reason(b model.TimeBlock, required int) string {
	return fmt.Sprintf("%s block %s-%s has %d minutes for a %d-minute task",
		b.BlockType, b.StartTime.Format("15:04"), b.EndTime.Format("15:04"), b.DurationMinutes(), required)
}

// Proposal describes a block to create when nothing fits.
type Proposal struct {
	Date      time.Time
	Start     time.Time
	End       time.Time
	BlockType model.BlockType
	Color     string
}

// ProposeBlock sizes a new block to exactly the task's required minutes. It
// starts at the planned time when that falls on date, else at 09:00.
func ProposeBlock(task model.Task, ctx Context) Proposal {
	day := model.StartOfDay(ctx.Date)
	start := day.Add(DefaultStartHour * time.Hour)
	if task.PlannedStartTime != nil && model.SameDay(day, *task.PlannedStartTime) {
		start = task.PlannedStartTime.In(day.Location())
	}
	bt := PreferredBlockType(ctx.CategoryKind)
	return Proposal{
		Date:      day,
		Start:     start,
		End:       start.Add(time.Duration(task.RequiredMinutes()) * time.Minute),
		BlockType: bt,
		Color:     bt.Color(),
	}
}
