package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/blockd/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	CreateBlock(ctx context.Context, in model.TimeBlock) error
	GetBlock(ctx context.Context, id string) (model.TimeBlock, error)
	UpdateBlock(ctx context.Context, in model.TimeBlock) error
	DeleteBlock(ctx context.Context, id string) error
	ListBlocks(ctx context.Context, filter BlockListFilter) ([]model.TimeBlock, error)

	// AssignTask moves a task to the end of a block, leaving any block it was
	// in before.
	AssignTask(ctx context.Context, taskID, blockID string) error
	UnassignTask(ctx context.Context, taskID string) error

	CreateSession(ctx context.Context, in model.PomodoroSession) error
	ListSessions(ctx context.Context, filter SessionListFilter) ([]model.PomodoroSession, error)

	UpsertCategory(ctx context.Context, in model.Category) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpsertProject(ctx context.Context, in model.Project) error
	ListProjects(ctx context.Context) ([]model.Project, error)

	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
	ImportSnapshot(ctx context.Context, snap model.Snapshot) (ImportStats, error)
}

type ImportStats struct {
	Tasks       int
	Blocks      int
	Sessions    int
	Categories  int
	Projects    int
	Assignments int
}
