package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/interval"
)

var ErrInvalidBlockType = errors.New("model: invalid block type")

type BlockType string

const (
	BlockTypeResearch      BlockType = "RESEARCH"
	BlockTypeGrowth        BlockType = "GROWTH"
	BlockTypeRest          BlockType = "REST"
	BlockTypeEntertainment BlockType = "ENTERTAINMENT"
	BlockTypeReview        BlockType = "REVIEW"
)

func (b BlockType) IsValid() bool {
	switch b {
	case BlockTypeResearch, BlockTypeGrowth, BlockTypeRest, BlockTypeEntertainment, BlockTypeReview:
		return true
	default:
		return false
	}
}

// IsFocus reports whether the block is meant for demanding work.
func (b BlockType) IsFocus() bool {
	return b == BlockTypeResearch || b == BlockTypeGrowth
}

// Color is the default display colour for a block type.
func (b BlockType) Color() string {
	switch b {
	case BlockTypeGrowth:
		return "#52c41a"
	case BlockTypeRest:
		return "#fa8c16"
	case BlockTypeEntertainment:
		return "#eb2f96"
	case BlockTypeReview:
		return "#722ed1"
	default:
		return "#1890ff"
	}
}

type TimeBlock struct {
	ID             string
	Date           time.Time
	StartTime      time.Time
	EndTime        time.Time
	BlockType      BlockType
	Color          string
	Description    string
	Recurrence     *RecurrenceRule
	ScheduledTasks []Task
}

// Interval returns the block's span or an error when its timestamps are
// missing or inverted.
func (b TimeBlock) Interval() (interval.Interval, error) {
	return interval.New(b.StartTime, b.EndTime)
}

// DurationMinutes is zero for blocks whose timestamps are not usable.
func (b TimeBlock) DurationMinutes() int {
	iv, err := b.Interval()
	if err != nil {
		return 0
	}
	return iv.Minutes()
}

func (b TimeBlock) Valid() bool {
	_, err := b.Interval()
	return err == nil
}

// Day is the calendar date the block belongs to. Date wins when present.
func (b TimeBlock) Day() time.Time {
	if !b.Date.IsZero() {
		return StartOfDay(b.Date)
	}
	return StartOfDay(b.StartTime)
}

func (b TimeBlock) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("model: time block id is required")
	}
	if !b.BlockType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidBlockType, b.BlockType)
	}
	if _, err := b.Interval(); err != nil {
		return fmt.Errorf("model: time block %s: %w", b.ID, err)
	}
	if b.Recurrence != nil {
		if err := b.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay compares calendar dates in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
