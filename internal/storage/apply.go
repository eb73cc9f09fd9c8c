package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/blockd/internal/commands"
	"github.com/sandeepkv93/blockd/internal/model"
)

// Applier persists the mutations the planner emits.
type Applier struct {
	Repo  Repository
	NewID func() string
	Now   func() time.Time
}

func NewApplier(repo Repository) *Applier {
	return &Applier{Repo: repo, NewID: uuid.NewString, Now: time.Now}
}

// Handlers wires the mutation commands; selection and navigation stay unset
// for the UI to fill in.
func (a *Applier) Handlers(ctx context.Context) commands.Handlers {
	return commands.Handlers{
		CreateBlock: func(args commands.CreateBlockArgs) (commands.Result, error) {
			return a.CreateBlock(ctx, args)
		},
		AssignTask: func(args commands.AssignTaskArgs) (commands.Result, error) {
			return a.AssignTask(ctx, args)
		},
		UpdateEstimate: func(args commands.UpdateEstimateArgs) (commands.Result, error) {
			return a.UpdateEstimate(ctx, args)
		},
	}
}

func (a *Applier) CreateBlock(ctx context.Context, args commands.CreateBlockArgs) (commands.Result, error) {
	color := args.Color
	if color == "" {
		color = args.BlockType.Color()
	}
	block := model.TimeBlock{
		ID:          a.NewID(),
		Date:        model.StartOfDay(args.Start),
		StartTime:   args.Start,
		EndTime:     args.End,
		BlockType:   args.BlockType,
		Color:       color,
		Description: args.Description,
	}
	if !args.Date.IsZero() {
		block.Date = model.StartOfDay(args.Date)
	}
	if err := block.Validate(); err != nil {
		return commands.Result{}, err
	}
	if err := a.Repo.CreateBlock(ctx, block); err != nil {
		return commands.Result{}, fmt.Errorf("create time block: %w", err)
	}
	msg := fmt.Sprintf("created %s block %s-%s", block.BlockType, block.StartTime.Format("15:04"), block.EndTime.Format("15:04"))
	if args.TaskID != "" {
		if err := a.Repo.AssignTask(ctx, args.TaskID, block.ID); err != nil {
			return commands.Result{}, fmt.Errorf("assign task %s: %w", args.TaskID, err)
		}
		msg += " with task " + args.TaskID
	}
	return commands.Result{Message: msg}, nil
}

func (a *Applier) AssignTask(ctx context.Context, args commands.AssignTaskArgs) (commands.Result, error) {
	if err := a.Repo.AssignTask(ctx, args.TaskID, args.BlockID); err != nil {
		return commands.Result{}, fmt.Errorf("assign task %s: %w", args.TaskID, err)
	}
	return commands.Result{Message: fmt.Sprintf("moved task %s to block %s", args.TaskID, args.BlockID)}, nil
}

func (a *Applier) UpdateEstimate(ctx context.Context, args commands.UpdateEstimateArgs) (commands.Result, error) {
	task, err := a.Repo.GetTask(ctx, args.TaskID)
	if err != nil {
		return commands.Result{}, fmt.Errorf("load task %s: %w", args.TaskID, err)
	}
	task.EstimatedPomodoros = args.Pomodoros
	task.UpdatedAt = a.Now()
	if err := task.Validate(); err != nil {
		return commands.Result{}, err
	}
	if err := a.Repo.UpdateTask(ctx, task); err != nil {
		return commands.Result{}, fmt.Errorf("update task %s: %w", args.TaskID, err)
	}
	return commands.Result{Message: fmt.Sprintf("task %s now estimated at %d pomodoros", task.ID, task.EstimatedPomodoros)}, nil
}
