package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type RecurrenceType string

const (
	RecurrenceEveryWeekday   RecurrenceType = "every_weekday"
	RecurrenceEveryNDays     RecurrenceType = "every_n_days"
	RecurrenceEveryNWeeks    RecurrenceType = "every_n_weeks"
	RecurrenceLastDayOfMonth RecurrenceType = "last_day_of_month"
)

// recurrence lookahead when searching for the next occurrence
const maxRecurrenceScanDays = 400

var (
	ErrInvalidRecurrenceType = errors.New("model: invalid recurrence type")
	ErrInvalidInterval       = errors.New("model: invalid recurrence interval")
	ErrNoOccurrence          = errors.New("model: recurrence has no occurrence in range")
)

// RecurrenceRule repeats a time block. Anchor carries both the first date and
// the clock time every occurrence starts at.
type RecurrenceRule struct {
	Type     RecurrenceType
	Interval int
	Anchor   time.Time
	Weekdays []time.Weekday
}

func (r RecurrenceRule) Validate() error {
	switch r.Type {
	case RecurrenceEveryWeekday, RecurrenceEveryNDays, RecurrenceEveryNWeeks, RecurrenceLastDayOfMonth:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, r.Type)
	}
	if r.Anchor.IsZero() {
		return errors.New("model: recurrence anchor is required")
	}
	if r.Interval <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.Type == RecurrenceEveryWeekday && len(r.Weekdays) > 0 {
		s := make([]int, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			s = append(s, int(d))
		}
		sort.Ints(s)
		for i := 1; i < len(s); i++ {
			if s[i] == s[i-1] {
				return errors.New("model: duplicate weekday in recurrence")
			}
		}
	}
	return nil
}

// OccursOn reports whether the rule places an occurrence on date's calendar
// day. Dates before the anchor never match.
func (r RecurrenceRule) OccursOn(date time.Time) bool {
	if r.Validate() != nil {
		return false
	}
	anchorDay := StartOfDay(r.Anchor)
	day := StartOfDay(date.In(r.Anchor.Location()))
	if day.Before(anchorDay) {
		return false
	}
	elapsed := daysBetween(anchorDay, day)

	switch r.Type {
	case RecurrenceEveryWeekday:
		return r.allowedWeekdays()[day.Weekday()]
	case RecurrenceEveryNDays:
		return elapsed%r.Interval == 0
	case RecurrenceEveryNWeeks:
		return elapsed%(7*r.Interval) == 0
	case RecurrenceLastDayOfMonth:
		return day.AddDate(0, 0, 1).Day() == 1
	default:
		return false
	}
}

// At is the occurrence start on date's day, using the anchor's clock.
func (r RecurrenceRule) At(date time.Time) time.Time {
	return withAnchorClock(date.In(r.Anchor.Location()), r.Anchor)
}

// NextAfter returns the first occurrence start strictly after from.
func (r RecurrenceRule) NextAfter(from time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	probe := StartOfDay(from.In(r.Anchor.Location()))
	for i := 0; i < maxRecurrenceScanDays; i++ {
		if r.OccursOn(probe) {
			if at := r.At(probe); at.After(from) {
				return at, nil
			}
		}
		probe = probe.AddDate(0, 0, 1)
	}
	return time.Time{}, ErrNoOccurrence
}

func (r RecurrenceRule) allowedWeekdays() map[time.Weekday]bool {
	if len(r.Weekdays) > 0 {
		m := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, w := range r.Weekdays {
			m[w] = true
		}
		return m
	}
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

// daysBetween counts calendar days, ignoring DST length changes.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func withAnchorClock(date time.Time, anchor time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}
