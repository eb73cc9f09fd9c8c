package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidSessionStatus = errors.New("model: invalid session status")

type SessionStatus string

const (
	SessionStatusPlanned     SessionStatus = "PLANNED"
	SessionStatusInProgress  SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted   SessionStatus = "COMPLETED"
	SessionStatusInterrupted SessionStatus = "INTERRUPTED"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPlanned, SessionStatusInProgress, SessionStatusCompleted, SessionStatusInterrupted:
		return true
	default:
		return false
	}
}

// PomodoroSession durations are in minutes.
type PomodoroSession struct {
	ID              string
	TaskID          string
	Status          SessionStatus
	PlannedDuration int
	ActualDuration  *int
	StartTime       time.Time
	CreatedAt       time.Time
}

// FocusMinutes prefers the recorded duration and falls back to the plan.
func (s PomodoroSession) FocusMinutes() int {
	if s.ActualDuration != nil && *s.ActualDuration > 0 {
		return *s.ActualDuration
	}
	if s.PlannedDuration > 0 {
		return s.PlannedDuration
	}
	return 0
}

func (s PomodoroSession) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: session id is required")
	}
	if strings.TrimSpace(s.TaskID) == "" {
		return errors.New("model: session task_id is required")
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSessionStatus, s.Status)
	}
	if s.PlannedDuration < 0 {
		return errors.New("model: session planned_duration must not be negative")
	}
	if s.ActualDuration != nil && *s.ActualDuration < 0 {
		return errors.New("model: session actual_duration must not be negative")
	}
	if s.CreatedAt.IsZero() {
		return errors.New("model: session created_at is required")
	}
	return nil
}
