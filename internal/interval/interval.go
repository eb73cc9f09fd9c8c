// Package interval implements half-open time spans and the small amount of
// algebra the planner needs over them.
package interval

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidInterval = errors.New("interval: start must be before end")

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New rejects missing timestamps and spans where start >= end.
func New(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%w: missing timestamp", ErrInvalidInterval)
	}
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Minutes truncates the duration to whole minutes.
func (i Interval) Minutes() int {
	return int(i.Duration() / time.Minute)
}

// DurationMinutes is Minutes with validation.
func DurationMinutes(i Interval) (int, error) {
	if !i.Valid() {
		return 0, ErrInvalidInterval
	}
	return i.Minutes(), nil
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapMinutes is the length of the shared span, zero when disjoint.
func OverlapMinutes(a, b Interval) int {
	if !Overlaps(a, b) {
		return 0
	}
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	return int(end.Sub(start) / time.Minute)
}

// GapMinutes is b.Start - a.End when a ends no later than b starts. The
// second result is false otherwise.
func GapMinutes(a, b Interval) (int, bool) {
	if b.Start.Before(a.End) {
		return 0, false
	}
	return int(b.Start.Sub(a.End) / time.Minute), true
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
