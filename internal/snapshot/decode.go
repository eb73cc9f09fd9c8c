// Package snapshot decodes exported planner data into a model.Snapshot.
//
// Decoding is lenient: a record whose timestamps or enums cannot be read is
// skipped and counted, and only a document that is not JSON at all fails.
package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sandeepkv93/blockd/internal/model"
)

var ErrInvalidJSON = errors.New("snapshot: invalid json")

// Report counts what Decode kept and what it had to drop.
type Report struct {
	Tasks      int
	Blocks     int
	Sessions   int
	Categories int
	Projects   int
	Skipped    map[string]int
}

func (r Report) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

type Options struct {
	// Location is applied to timestamps that carry no zone offset.
	Location *time.Location
}

// Decode reads a document with top-level tasks, time_blocks,
// pomodoro_sessions, categories and projects arrays. A bare array of
// tasks is also accepted.
func Decode(data []byte, opts Options) (model.Snapshot, Report, error) {
	if !gjson.ValidBytes(data) {
		return model.Snapshot{}, Report{}, ErrInvalidJSON
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	d := decoder{loc: loc, report: Report{Skipped: map[string]int{}}}

	root := gjson.ParseBytes(data)
	if root.IsArray() {
		root.ForEach(func(_, v gjson.Result) bool {
			d.addTask(v)
			return true
		})
		return d.snap, d.report, nil
	}
	if !root.IsObject() {
		return model.Snapshot{}, Report{}, fmt.Errorf("%w: expected object or array", ErrInvalidJSON)
	}

	each(root, "categories", d.addCategory)
	each(root, "projects", d.addProject)
	each(root, "tasks", d.addTask)
	eachOf(root, []string{"time_blocks", "blocks"}, d.addBlock)
	eachOf(root, []string{"pomodoro_sessions", "sessions"}, d.addSession)
	return d.snap, d.report, nil
}

type decoder struct {
	loc    *time.Location
	snap   model.Snapshot
	report Report
}

func (d *decoder) skip(kind string) {
	d.report.Skipped[kind]++
}

func (d *decoder) addCategory(v gjson.Result) {
	c, ok := d.category(v)
	if !ok {
		d.skip("categories")
		return
	}
	d.snap.Categories = append(d.snap.Categories, c)
	d.report.Categories++
}

func (d *decoder) addProject(v gjson.Result) {
	id := str(v, "id")
	if id == "" {
		d.skip("projects")
		return
	}
	p := model.Project{
		ID:       id,
		Name:     str(v, "name"),
		Color:    str(v, "color"),
		Priority: model.Priority(strings.ToUpper(str(v, "priority"))),
	}
	if p.Priority != "" && !p.Priority.IsValid() {
		p.Priority = ""
	}
	d.snap.Projects = append(d.snap.Projects, p)
	d.report.Projects++
}

func (d *decoder) addTask(v gjson.Result) {
	t, ok := d.task(v)
	if !ok {
		d.skip("tasks")
		return
	}
	d.snap.Tasks = append(d.snap.Tasks, t)
	d.report.Tasks++
}

func (d *decoder) addBlock(v gjson.Result) {
	b, ok := d.block(v)
	if !ok {
		d.skip("time_blocks")
		return
	}
	d.snap.Blocks = append(d.snap.Blocks, b)
	d.report.Blocks++
}

func (d *decoder) addSession(v gjson.Result) {
	s, ok := d.session(v)
	if !ok {
		d.skip("pomodoro_sessions")
		return
	}
	d.snap.Sessions = append(d.snap.Sessions, s)
	d.report.Sessions++
}

func (d *decoder) category(v gjson.Result) (model.Category, bool) {
	c := model.Category{
		ID:    str(v, "id"),
		Name:  str(v, "name"),
		Color: str(v, "color"),
		Kind:  model.CategoryKind(strings.ToLower(str(v, "kind"))),
	}
	if c.ID == "" {
		return model.Category{}, false
	}
	if !c.Kind.IsValid() {
		c.Kind = model.ClassifyCategory(c.Name)
	}
	return c, true
}

func (d *decoder) task(v gjson.Result) (model.Task, bool) {
	t := model.Task{
		ID:                 str(v, "id"),
		Title:              str(v, "title"),
		Description:        str(v, "description"),
		Priority:           model.Priority(strings.ToUpper(str(v, "priority"))),
		Type:               model.TaskType(strings.ToUpper(firstStr(v, "task_type", "type"))),
		Status:             model.TaskStatus(strings.ToUpper(str(v, "status"))),
		EstimatedPomodoros: int(v.Get("estimated_pomodoros").Int()),
		CategoryID:         str(v, "category_id"),
		ProjectID:          str(v, "project_id"),
		ScheduledBlockID:   firstStr(v, "scheduled_time_block_id", "scheduled_block_id"),
	}
	if t.Type == "" {
		t.Type = model.TaskTypeFlexible
	}
	if t.Status == "" {
		t.Status = model.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	var ok bool
	if t.PlannedStartTime, ok = d.optionalTime(v.Get("planned_start_time")); !ok {
		return model.Task{}, false
	}
	if t.CreatedAt, ok = d.requiredTime(v.Get("created_at")); !ok {
		return model.Task{}, false
	}
	updated, ok := d.optionalTime(v.Get("updated_at"))
	if !ok {
		return model.Task{}, false
	}
	if updated != nil {
		t.UpdatedAt = *updated
	} else {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Validate() != nil {
		return model.Task{}, false
	}
	return t, true
}

func (d *decoder) block(v gjson.Result) (model.TimeBlock, bool) {
	b := model.TimeBlock{
		ID:          str(v, "id"),
		BlockType:   model.BlockType(strings.ToUpper(str(v, "block_type"))),
		Color:       str(v, "color"),
		Description: str(v, "description"),
	}
	var ok bool
	if b.StartTime, ok = d.requiredTime(v.Get("start_time")); !ok {
		return model.TimeBlock{}, false
	}
	if b.EndTime, ok = d.requiredTime(v.Get("end_time")); !ok {
		return model.TimeBlock{}, false
	}
	if raw := str(v, "date"); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw[:min(len(raw), len(time.DateOnly))], d.loc)
		if err != nil {
			return model.TimeBlock{}, false
		}
		b.Date = day
	} else {
		b.Date = model.StartOfDay(b.StartTime)
	}
	if b.Color == "" {
		b.Color = b.BlockType.Color()
	}
	if v.Get("is_recurring").Bool() || v.Get("recurrence").Exists() {
		rule, err := parseRecurrence(firstResult(v, "recurrence", "recurrence_pattern"), b.StartTime)
		if err != nil {
			return model.TimeBlock{}, false
		}
		b.Recurrence = rule
	}

	v.Get("scheduled_tasks").ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			b.ScheduledTasks = append(b.ScheduledTasks, model.Task{ID: item.String()})
			return true
		}
		if t, ok := d.task(item); ok {
			t.ScheduledBlockID = b.ID
			b.ScheduledTasks = append(b.ScheduledTasks, t)
		} else {
			d.skip("scheduled_tasks")
		}
		return true
	})

	if b.Validate() != nil {
		return model.TimeBlock{}, false
	}
	return b, true
}

func (d *decoder) session(v gjson.Result) (model.PomodoroSession, bool) {
	s := model.PomodoroSession{
		ID:              str(v, "id"),
		TaskID:          str(v, "task_id"),
		Status:          model.SessionStatus(strings.ToUpper(str(v, "status"))),
		PlannedDuration: int(v.Get("planned_duration").Int()),
	}
	if actual := v.Get("actual_duration"); actual.Exists() && actual.Type != gjson.Null {
		n := int(actual.Int())
		s.ActualDuration = &n
	}
	var ok bool
	if s.CreatedAt, ok = d.requiredTime(v.Get("created_at")); !ok {
		return model.PomodoroSession{}, false
	}
	start, ok := d.optionalTime(v.Get("start_time"))
	if !ok {
		return model.PomodoroSession{}, false
	}
	if start != nil {
		s.StartTime = *start
	}
	if s.Validate() != nil {
		return model.PomodoroSession{}, false
	}
	return s, true
}

// requiredTime fails on a missing or unreadable timestamp.
func (d *decoder) requiredTime(v gjson.Result) (time.Time, bool) {
	t, ok := d.optionalTime(v)
	if !ok || t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// optionalTime accepts an absent or null value as nil; a present value
// that cannot be parsed is reported as not ok.
func (d *decoder) optionalTime(v gjson.Result) (*time.Time, bool) {
	if !v.Exists() || v.Type == gjson.Null || strings.TrimSpace(v.String()) == "" {
		return nil, true
	}
	t, err := ParseTime(v.String(), d.loc)
	if err != nil {
		return nil, false
	}
	return &t, true
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTime reads RFC 3339 and the zone-less ISO forms exported by the
// web backend. Zone-less values are placed in loc.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("snapshot: unrecognised timestamp %q", raw)
}

func each(root gjson.Result, path string, fn func(gjson.Result)) {
	root.Get(path).ForEach(func(_, v gjson.Result) bool {
		fn(v)
		return true
	})
}

func eachOf(root gjson.Result, paths []string, fn func(gjson.Result)) {
	for _, p := range paths {
		if root.Get(p).Exists() {
			each(root, p, fn)
			return
		}
	}
}

func str(v gjson.Result, path string) string {
	return strings.TrimSpace(v.Get(path).String())
}

func firstStr(v gjson.Result, paths ...string) string {
	return strings.TrimSpace(firstResult(v, paths...).String())
}

func firstResult(v gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}
