// Package session keeps the current plan for an interactive front end and
// runs user commands against it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/planner"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

// Source supplies the records a plan is computed from.
type Source interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
	Date     time.Time
	Window   metrics.Window
	// StatePath persists accept and ignore decisions; empty keeps them in
	// memory only.
	StatePath string
}

// Session is safe for concurrent use. Mutations reach the data layer only
// through the handlers passed to New.
type Session struct {
	planner *planner.Planner
	source  Source
	mutate  commands.Handlers
	loc     *time.Location
	now     func() time.Time
	state   string

	mu       sync.Mutex
	date     time.Time
	window   metrics.Window
	statuses map[string]recommend.Status
	plan     planner.Plan
}

func New(p *planner.Planner, src Source, mutate commands.Handlers, opts Options) (*Session, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	statuses, err := loadStatuses(opts.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load recommendation state: %w", err)
	}
	date := opts.Date
	if date.IsZero() {
		date = now().In(loc)
	}
	return &Session{
		planner:  p,
		source:   src,
		mutate:   mutate,
		loc:      loc,
		now:      now,
		state:    opts.StatePath,
		date:     model.StartOfDay(date.In(loc)),
		window:   opts.Window,
		statuses: statuses,
	}, nil
}

// Refresh reloads the snapshot and recomputes the plan, keeping earlier
// accept and ignore decisions.
func (s *Session) Refresh(ctx context.Context) (planner.Plan, error) {
	snap, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		return planner.Plan{}, fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	plan := s.planner.Plan(snap, planner.Request{Date: s.date, Now: s.now().In(s.loc), Window: s.window})
	plan.Recommendations = plan.Recommendations.ApplyStatus(s.statuses)
	s.plan = plan
	return plan, nil
}

func (s *Session) Plan() planner.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

func (s *Session) Window() metrics.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Run parses one command line and executes it.
func (s *Session) Run(ctx context.Context, input string) (commands.Result, error) {
	cmd, err := commands.Parse(input, s.loc)
	if err != nil {
		return commands.Result{}, err
	}
	return s.Execute(ctx, cmd)
}

func (s *Session) Execute(ctx context.Context, cmd commands.Command) (commands.Result, error) {
	res, err := commands.Execute(cmd, s.Handlers(ctx))
	if err != nil {
		return commands.Result{}, err
	}
	switch cmd.Type {
	case commands.TypeCreateBlock, commands.TypeAssignTask, commands.TypeUpdateEstimate:
		if _, err := s.Refresh(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Handlers combines the data-layer mutations with the plan-level actions.
func (s *Session) Handlers(ctx context.Context) commands.Handlers {
	h := s.mutate
	h.Accept = func(args commands.SelectArgs) (commands.Result, error) { return s.accept(ctx, args.Index) }
	h.Ignore = func(args commands.SelectArgs) (commands.Result, error) { return s.ignore(args.Index) }
	h.Resolve = func(args commands.SelectArgs) (commands.Result, error) { return s.resolve(ctx, args.Index) }
	h.Date = func(args commands.DateArgs) (commands.Result, error) {
		s.mu.Lock()
		s.date = model.StartOfDay(args.Date.In(s.loc))
		s.mu.Unlock()
		if _, err := s.Refresh(ctx); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: "planning " + args.Date.Format("2006-01-02")}, nil
	}
	h.Range = func(args commands.RangeArgs) (commands.Result, error) {
		preset, err := metrics.ParsePreset(args.Preset)
		if err != nil {
			return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
		}
		s.mu.Lock()
		s.window = metrics.PresetWindow(preset)
		s.mu.Unlock()
		if _, err := s.Refresh(ctx); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: "metrics range " + string(preset)}, nil
	}
	h.Refresh = func() (commands.Result, error) {
		plan, err := s.Refresh(ctx)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("refreshed: %d recommendation(s), %d conflict(s)",
			len(plan.Recommendations.Items), len(plan.Conflicts.Conflicts))}, nil
	}
	return h
}

func (s *Session) accept(ctx context.Context, n int) (commands.Result, error) {
	rec, err := s.Plan().Recommendation(n)
	if err != nil {
		return commands.Result{}, selectError(err)
	}
	if rec.Status != recommend.StatusPending {
		return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("recommendation %d is already %s", n, rec.Status)}
	}

	cmds, err := s.planner.Accept(rec)
	if err != nil && !errors.Is(err, planner.ErrNothingToApply) {
		return commands.Result{}, err
	}
	for _, c := range cmds {
		if _, err := commands.Execute(c, s.mutate); err != nil {
			return commands.Result{}, fmt.Errorf("accept %q: %w", rec.Title, err)
		}
	}
	if err := s.setStatus(rec.ID, recommend.StatusAccepted); err != nil {
		return commands.Result{}, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		return commands.Result{}, err
	}
	if len(cmds) == 0 {
		return commands.Result{Message: fmt.Sprintf("noted: %s", rec.Title)}, nil
	}
	return commands.Result{Message: fmt.Sprintf("accepted: %s (%d change(s))", rec.Title, len(cmds))}, nil
}

func (s *Session) ignore(n int) (commands.Result, error) {
	rec, err := s.Plan().Recommendation(n)
	if err != nil {
		return commands.Result{}, selectError(err)
	}
	if err := s.setStatus(rec.ID, recommend.StatusIgnored); err != nil {
		return commands.Result{}, err
	}
	s.mu.Lock()
	s.plan.Recommendations = s.plan.Recommendations.ApplyStatus(s.statuses)
	s.mu.Unlock()
	return commands.Result{Message: fmt.Sprintf("ignored: %s", rec.Title)}, nil
}

func (s *Session) resolve(ctx context.Context, n int) (commands.Result, error) {
	c, err := s.Plan().Conflict(n)
	if err != nil {
		return commands.Result{}, selectError(err)
	}
	fix, err := s.planner.Resolve(c)
	if err != nil {
		return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
	}
	res, err := commands.Execute(fix, s.mutate)
	if err != nil {
		return commands.Result{}, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: "resolved: " + res.Message}, nil
}

func (s *Session) setStatus(id string, status recommend.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return saveStatuses(s.state, s.statuses)
}

func selectError(err error) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
}
