// Package recommend scores pending tasks and ranks them together with
// schedule-level suggestions.
package recommend

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/match"
	"github.com/sandeepkv93/blockd/internal/model"
)

type Type string

const (
	TypeTask       Type = "TASK_RECOMMENDATION"
	TypeTime       Type = "TIME_OPTIMIZATION"
	TypeEfficiency Type = "EFFICIENCY_IMPROVEMENT"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusIgnored  Status = "IGNORED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusIgnored:
		return true
	default:
		return false
	}
}

// Level is the label shown next to a score.
type Level string

const (
	LevelUrgent Level = "urgent"
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// LevelFor maps points (hundredths of the raw score) onto a level:
// 80 and up is urgent, 60 high, 40 medium.
func LevelFor(points int) Level {
	switch {
	case points >= 80:
		return LevelUrgent
	case points >= 60:
		return LevelHigh
	case points >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

type Energy string

const (
	EnergyHigh   Energy = "HIGH"
	EnergyMedium Energy = "MEDIUM"
	EnergyLow    Energy = "LOW"
)

// EnergyFor estimates how demanding a task is to start.
func EnergyFor(t model.Task) Energy {
	switch {
	case t.EstimatedPomodoros >= 3, t.Priority == model.PriorityHigh:
		return EnergyHigh
	case t.EstimatedPomodoros == 1:
		return EnergyLow
	default:
		return EnergyMedium
	}
}

type ActionKind string

const (
	ActionScheduleToBlock  ActionKind = "SCHEDULE_TO_BLOCK"
	ActionCreateBlock      ActionKind = "CREATE_TIME_BLOCK"
	ActionStartTask        ActionKind = "START_TASK"
	ActionOptimizeSchedule ActionKind = "OPTIMIZE_SCHEDULE"
	ActionFillGap          ActionKind = "FILL_GAP"
	ActionBatchProcess     ActionKind = "BATCH_PROCESS"
	ActionScheduleRest     ActionKind = "SCHEDULE_REST"
)

// Action is what accepting a recommendation does. Commands may be empty for
// purely advisory items.
type Action struct {
	Kind        ActionKind
	Text        string
	Description string
	Commands    []commands.Command
}

type Recommendation struct {
	ID   string
	Type Type
	// Priority is the raw score; Score is the same value in hundredths and is
	// what gets displayed and sorted on.
	Priority         float64
	Score            int
	Level            Level
	Title            string
	Description      string
	Task             *model.Task
	SuggestedBlock   *match.Match
	Action           Action
	Reasons          []string
	Status           Status
	Energy           Energy
	EstimatedMinutes int
	GeneratedAt      time.Time
}

// New fills the derived fields shared by every recommendation kind.
func New(typ Type, subject string, points int, now time.Time) Recommendation {
	return Recommendation{
		ID:          ID(typ, subject),
		Type:        typ,
		Priority:    float64(points) / 100,
		Score:       points,
		Level:       LevelFor(points),
		Status:      StatusPending,
		GeneratedAt: now,
	}
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("blockd.recommendation"))

// ID is stable for a given type and subject, so recomputing a plan yields the
// same identifiers and per-item status survives refreshes.
func ID(typ Type, subject string) string {
	return uuid.NewSHA1(idNamespace, []byte(string(typ)+":"+subject)).String()
}

type Result struct {
	Items []Recommendation
	// Current is the best pending task recommendation, nil when there is
	// none.
	Current *Recommendation
	ByType  map[Type]int
}

// Merge ranks task recommendations and suggestions together by score,
// keeping input order among equal scores, and truncates to limit (no limit when
// limit <= 0).
func Merge(tasks, suggestions []Recommendation, limit int) Result {
	items := make([]Recommendation, 0, len(tasks)+len(suggestions))
	items = append(items, tasks...)
	items = append(items, suggestions...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := Result{Items: items, ByType: make(map[Type]int)}
	for i := range items {
		out.ByType[items[i].Type]++
	}
	out.Current = current(items)
	return out
}

// current is the best task recommendation still awaiting a decision.
func current(items []Recommendation) *Recommendation {
	for i := range items {
		if items[i].Type == TypeTask && items[i].Status == StatusPending {
			return &items[i]
		}
	}
	return nil
}

// ApplyStatus carries user decisions over to a freshly computed result.
func (r Result) ApplyStatus(statuses map[string]Status) Result {
	if len(statuses) == 0 {
		return r
	}
	items := make([]Recommendation, len(r.Items))
	copy(items, r.Items)
	out := Result{Items: items, ByType: r.ByType}
	for i := range items {
		if s, ok := statuses[items[i].ID]; ok && s.IsValid() {
			items[i].Status = s
		}
	}
	out.Current = current(items)
	return out
}

// Pending drops accepted and ignored items.
func (r Result) Pending() []Recommendation {
	out := make([]Recommendation, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Status == StatusPending {
			out = append(out, item)
		}
	}
	return out
}
