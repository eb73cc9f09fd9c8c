package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

var ErrInvalidPreset = errors.New("metrics: invalid range preset")

type Preset string

const (
	PresetToday   Preset = "today"
	PresetWeek    Preset = "7d"
	PresetMonth   Preset = "30d"
	PresetQuarter Preset = "quarter"
	PresetAll     Preset = "all"
)

func (p Preset) IsValid() bool {
	switch p {
	case PresetToday, PresetWeek, PresetMonth, PresetQuarter, PresetAll:
		return true
	default:
		return false
	}
}

// ParsePreset accepts the canonical names plus "week" and "month".
func ParsePreset(value string) (Preset, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "week":
		return PresetWeek, nil
	case "month":
		return PresetMonth, nil
	}
	p := Preset(v)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPreset, value)
	}
	return p, nil
}

// Window selects the records metrics are computed over. An explicit From/To
// pair wins over Preset; both ends are whole days.
type Window struct {
	Preset Preset
	From   time.Time
	To     time.Time
}

func PresetWindow(p Preset) Window {
	return Window{Preset: p}
}

// Range returns [from, to). A zero bound is open.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	if !w.From.IsZero() && !w.To.IsZero() {
		return model.StartOfDay(w.From), model.StartOfDay(w.To).AddDate(0, 0, 1)
	}
	today := model.StartOfDay(now)
	switch w.Preset {
	case PresetToday:
		return today, time.Time{}
	case PresetWeek:
		return today.AddDate(0, 0, -7), time.Time{}
	case PresetMonth:
		return today.AddDate(0, 0, -30), time.Time{}
	case PresetQuarter:
		return today.AddDate(0, -3, 0), time.Time{}
	default:
		return time.Time{}, time.Time{}
	}
}

func (w Window) String() string {
	if !w.From.IsZero() && !w.To.IsZero() {
		return w.From.Format("2006-01-02") + ".." + w.To.Format("2006-01-02")
	}
	if w.Preset == "" {
		return string(PresetAll)
	}
	return string(w.Preset)
}

func within(t, from, to time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// Filtered is the part of a snapshot that falls inside a window.
type Filtered struct {
	Tasks    []model.Task
	Sessions []model.PomodoroSession
	Blocks   []model.TimeBlock
}

// Filter keeps tasks and sessions by CreatedAt and blocks by their day.
// Records without the timestamp are dropped.
func Filter(snap model.Snapshot, w Window, now time.Time) Filtered {
	from, to := w.Range(now)
	out := Filtered{}
	for _, t := range snap.Tasks {
		if within(t.CreatedAt, from, to) {
			out.Tasks = append(out.Tasks, t)
		}
	}
	for _, s := range snap.Sessions {
		if within(s.CreatedAt, from, to) {
			out.Sessions = append(out.Sessions, s)
		}
	}
	for _, b := range snap.Blocks {
		if !b.Valid() {
			continue
		}
		if within(b.Day(), from, to) {
			out.Blocks = append(out.Blocks, b)
		}
	}
	return out
}
