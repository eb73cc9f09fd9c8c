package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PomodoroMinutes is the length of one focus unit.
const PomodoroMinutes = 25

var (
	ErrInvalidStatus    = errors.New("model: invalid task status")
	ErrInvalidPriority  = errors.New("model: invalid task priority")
	ErrInvalidTaskType  = errors.New("model: invalid task type")
	ErrInvalidEstimate  = errors.New("model: estimated pomodoros must be at least 1")
	ErrMissingCreatedAt = errors.New("model: task created_at is required")
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type TaskType string

const (
	TaskTypeRigid    TaskType = "RIGID"
	TaskTypeFlexible TaskType = "FLEXIBLE"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeRigid, TaskTypeFlexible:
		return true
	default:
		return false
	}
}

type Task struct {
	ID                 string
	Title              string
	Description        string
	Priority           Priority
	Type               TaskType
	Status             TaskStatus
	EstimatedPomodoros int
	PlannedStartTime   *time.Time
	CategoryID         string
	ProjectID          string
	ScheduledBlockID   string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RequiredMinutes is the focus time the task needs, derived from its estimate.
func (t Task) RequiredMinutes() int {
	return t.EstimatedPomodoros * PomodoroMinutes
}

// Schedulable reports whether the task carries enough data to take part in
// scoring and matching. Anything else is treated as malformed and skipped.
func (t Task) Schedulable() bool {
	return strings.TrimSpace(t.ID) != "" && t.EstimatedPomodoros >= 1
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskType, t.Type)
	}
	if t.EstimatedPomodoros < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidEstimate, t.EstimatedPomodoros)
	}
	if t.CreatedAt.IsZero() {
		return ErrMissingCreatedAt
	}
	return nil
}
