package storage

import (
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

type TaskListFilter struct {
	Status model.TaskStatus
	Limit  int
	Offset int
}

// BlockListFilter selects blocks dated within [From, To]. Recurring blocks
// are returned regardless of date when IncludeRecurring is set, so callers
// can project them.
type BlockListFilter struct {
	From             time.Time
	To               time.Time
	IncludeRecurring bool
	Limit            int
	Offset           int
}

type SessionListFilter struct {
	TaskID string
	Since  time.Time
	Limit  int
	Offset int
}
