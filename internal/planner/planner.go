// Package planner bundles the conflict detector, recommender, advisor and
// metrics into one call over a snapshot, and turns accepted results into
// commands for the data layer.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/blockd/internal/advisor"
	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/conflict"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

var (
	ErrNothingToApply = errors.New("planner: recommendation has no action to apply")
	ErrNotAutoFixable = errors.New("planner: conflict is not auto-fixable")
	ErrOutOfRange     = errors.New("planner: item number out of range")
)

type Config struct {
	Recommend recommend.Config
	Conflict  conflict.Options
}

func DefaultConfig() Config {
	return Config{
		Recommend: recommend.DefaultConfig(),
		Conflict:  conflict.DefaultOptions(),
	}
}

// Planner holds configuration only; it is safe for concurrent use.
type Planner struct {
	cfg Config
}

func New(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

type Request struct {
	// Date selects the day whose blocks are checked and matched against.
	Date time.Time
	Now  time.Time
	// Window scopes the metrics; the zero value covers everything.
	Window metrics.Window
}

type Plan struct {
	Date            time.Time
	GeneratedAt     time.Time
	Blocks          []model.TimeBlock
	Conflicts       conflict.Result
	Recommendations recommend.Result
	// Suggestions is every advisor output before ranking, so callers can
	// show them even when the merged list was truncated.
	Suggestions []recommend.Recommendation
	Metrics     metrics.Metrics
}

// Plan computes everything from scratch; it never mutates snap.
func (p *Planner) Plan(snap model.Snapshot, req Request) Plan {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	date := req.Date
	if date.IsZero() {
		date = now
	}
	date = model.StartOfDay(date)

	blocks := snap.BlocksOn(date)
	tasks := recommend.Rank(recommend.Input{
		Snapshot: snap,
		Blocks:   blocks,
		Date:     date,
		Now:      now,
	}, p.cfg.Recommend)
	suggestions := advisor.Advise(advisor.Input{
		Pending:  snap.PendingTasks(),
		Blocks:   blocks,
		Snapshot: snap,
		Now:      now,
	})

	return Plan{
		Date:            date,
		GeneratedAt:     now,
		Blocks:          blocks,
		Conflicts:       conflict.Detect(blocks, p.cfg.Conflict),
		Recommendations: recommend.Merge(tasks, suggestions, p.cfg.Recommend.MaxRecommendations),
		Suggestions:     suggestions,
		Metrics:         metrics.Compute(snap, req.Window, now),
	}
}

// Accept returns the commands that carry out a recommendation.
func (p *Planner) Accept(rec recommend.Recommendation) ([]commands.Command, error) {
	if len(rec.Action.Commands) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToApply, rec.Title)
	}
	out := make([]commands.Command, len(rec.Action.Commands))
	copy(out, rec.Action.Commands)
	return out, nil
}

// Resolve returns the fix for an auto-fixable conflict.
func (p *Planner) Resolve(c conflict.Conflict) (commands.Command, error) {
	if !c.AutoFixable || c.Fix == nil {
		return commands.Command{}, fmt.Errorf("%w: %s", ErrNotAutoFixable, c.Message)
	}
	return *c.Fix, nil
}

// Recommendation looks up a ranked item by its 1-based position.
func (pl Plan) Recommendation(n int) (recommend.Recommendation, error) {
	if n < 1 || n > len(pl.Recommendations.Items) {
		return recommend.Recommendation{}, fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	return pl.Recommendations.Items[n-1], nil
}

// Conflict looks up a conflict by its 1-based position.
func (pl Plan) Conflict(n int) (conflict.Conflict, error) {
	if n < 1 || n > len(pl.Conflicts.Conflicts) {
		return conflict.Conflict{}, fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	return pl.Conflicts.Conflicts[n-1], nil
}
