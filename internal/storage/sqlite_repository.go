package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/blockd/internal/model"
)

const (
	sqliteTimeLayout = time.RFC3339Nano
	sqliteDateLayout = "2006-01-02"
)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db *sql.DB
	// loc is where stored instants are read back into and where block dates
	// are interpreted.
	loc *time.Location
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	// PRAGMA foreign_keys is per connection, so pin the pool to one.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, loc: time.Local}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// WithLocation sets the zone times are returned in.
func (r *SQLiteRepository) WithLocation(loc *time.Location) *SQLiteRepository {
	if loc != nil {
		r.loc = loc
	}
	return r
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const taskColumns = `t.id, t.title, t.description, t.priority, t.task_type, t.status, t.estimated_pomodoros,
	t.planned_start_time, t.category_id, t.project_id, t.created_at, t.updated_at, COALESCE(bt.block_id, '')`

const taskFrom = ` FROM tasks t LEFT JOIN block_tasks bt ON bt.task_id = t.id`

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	return insertTask(ctx, r.db, in, false)
}

func insertTask(ctx context.Context, db dbtx, in model.Task, upsert bool) error {
	query := `
		INSERT INTO tasks (id, title, description, priority, task_type, status, estimated_pomodoros,
			planned_start_time, category_id, project_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description,
			priority = excluded.priority, task_type = excluded.task_type, status = excluded.status,
			estimated_pomodoros = excluded.estimated_pomodoros, planned_start_time = excluded.planned_start_time,
			category_id = excluded.category_id, project_id = excluded.project_id, updated_at = excluded.updated_at`
	}
	_, err := db.ExecContext(ctx, query,
		in.ID, in.Title, in.Description, string(in.Priority), string(in.Type), string(in.Status), in.EstimatedPomodoros,
		nullTime(in.PlannedStartTime), nullString(in.CategoryID), nullString(in.ProjectID),
		mustTime(in.CreatedAt), mustTime(updatedOrCreated(in.UpdatedAt, in.CreatedAt)),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ?`, id)
	task, err := r.scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, task_type = ?, status = ?, estimated_pomodoros = ?,
			planned_start_time = ?, category_id = ?, project_id = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Description, string(in.Priority), string(in.Type), string(in.Status), in.EstimatedPomodoros,
		nullTime(in.PlannedStartTime), nullString(in.CategoryID), nullString(in.ProjectID),
		mustTime(updatedOrCreated(in.UpdatedAt, in.CreatedAt)), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom
	args := make([]any, 0, 3)
	if filter.Status != "" {
		query += ` WHERE t.status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY t.created_at ASC, t.id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := r.scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

const blockColumns = `id, date, start_time, end_time, block_type, color, description,
	recurrence_type, recurrence_interval, recurrence_weekdays`

func (r *SQLiteRepository) CreateBlock(ctx context.Context, in model.TimeBlock) error {
	return insertBlock(ctx, r.db, in, false)
}

func insertBlock(ctx context.Context, db dbtx, in model.TimeBlock, upsert bool) error {
	recType, recInterval, recWeekdays := recurrenceColumns(in.Recurrence)
	query := `
		INSERT INTO time_blocks (id, date, start_time, end_time, block_type, color, description,
			recurrence_type, recurrence_interval, recurrence_weekdays, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET date = excluded.date, start_time = excluded.start_time,
			end_time = excluded.end_time, block_type = excluded.block_type, color = excluded.color,
			description = excluded.description, recurrence_type = excluded.recurrence_type,
			recurrence_interval = excluded.recurrence_interval, recurrence_weekdays = excluded.recurrence_weekdays`
	}
	_, err := db.ExecContext(ctx, query,
		in.ID, in.Day().Format(sqliteDateLayout), mustTime(in.StartTime), mustTime(in.EndTime),
		string(in.BlockType), in.Color, in.Description, recType, recInterval, recWeekdays,
		mustTime(time.Now()),
	)
	return err
}

func (r *SQLiteRepository) GetBlock(ctx context.Context, id string) (model.TimeBlock, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM time_blocks WHERE id = ?`, id)
	block, err := r.scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TimeBlock{}, ErrNotFound
		}
		return model.TimeBlock{}, err
	}
	blocks := []model.TimeBlock{block}
	if err := r.attachTasks(ctx, blocks); err != nil {
		return model.TimeBlock{}, err
	}
	return blocks[0], nil
}

func (r *SQLiteRepository) UpdateBlock(ctx context.Context, in model.TimeBlock) error {
	recType, recInterval, recWeekdays := recurrenceColumns(in.Recurrence)
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_blocks
		SET date = ?, start_time = ?, end_time = ?, block_type = ?, color = ?, description = ?,
			recurrence_type = ?, recurrence_interval = ?, recurrence_weekdays = ?
		WHERE id = ?`,
		in.Day().Format(sqliteDateLayout), mustTime(in.StartTime), mustTime(in.EndTime),
		string(in.BlockType), in.Color, in.Description, recType, recInterval, recWeekdays, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteBlock(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListBlocks(ctx context.Context, filter BlockListFilter) ([]model.TimeBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM time_blocks`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if !filter.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From.Format(sqliteDateLayout))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To.Format(sqliteDateLayout))
	}
	if len(clauses) > 0 {
		where := "(" + strings.Join(clauses, " AND ") + ")"
		if filter.IncludeRecurring {
			where += " OR recurrence_type IS NOT NULL"
		}
		query += " WHERE " + where
	}
	query += ` ORDER BY date ASC, start_time ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeBlock, 0)
	for rows.Next() {
		block, scanErr := r.scanBlock(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, block)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTasks(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTasks fills ScheduledTasks in block position order.
func (r *SQLiteRepository) attachTasks(ctx context.Context, blocks []model.TimeBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	index := make(map[string]int, len(blocks))
	placeholders := make([]string, 0, len(blocks))
	args := make([]any, 0, len(blocks))
	for i, b := range blocks {
		index[b.ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, b.ID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+taskFrom+`
		WHERE bt.block_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY bt.block_id, bt.position`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		task, scanErr := r.scanTask(rows)
		if scanErr != nil {
			return scanErr
		}
		i := index[task.ScheduledBlockID]
		blocks[i].ScheduledTasks = append(blocks[i].ScheduledTasks, task)
	}
	return rows.Err()
}

func (r *SQLiteRepository) AssignTask(ctx context.Context, taskID, blockID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := assignTask(ctx, tx, taskID, blockID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func assignTask(ctx context.Context, db dbtx, taskID, blockID string) error {
	for _, check := range []struct{ table, id string }{{"tasks", taskID}, {"time_blocks", blockID}} {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+check.table+` WHERE id = ?`, check.id).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %s", ErrNotFound, strings.TrimSuffix(check.table, "s"), check.id)
		}
	}
	var current string
	err := db.QueryRowContext(ctx, `SELECT block_id FROM block_tasks WHERE task_id = ?`, taskID).Scan(&current)
	switch {
	case err == nil && current == blockID:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM block_tasks WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO block_tasks (block_id, task_id, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM block_tasks WHERE block_id = ?`,
		blockID, taskID, blockID,
	)
	return err
}

func (r *SQLiteRepository) UnassignTask(ctx context.Context, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM block_tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

const sessionColumns = `id, task_id, status, planned_duration, actual_duration, start_time, created_at`

func (r *SQLiteRepository) CreateSession(ctx context.Context, in model.PomodoroSession) error {
	return insertSession(ctx, r.db, in, false)
}

func insertSession(ctx context.Context, db dbtx, in model.PomodoroSession, upsert bool) error {
	query := `
		INSERT INTO pomodoro_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET task_id = excluded.task_id, status = excluded.status,
			planned_duration = excluded.planned_duration, actual_duration = excluded.actual_duration,
			start_time = excluded.start_time`
	}
	var actual any
	if in.ActualDuration != nil {
		actual = *in.ActualDuration
	}
	var start *time.Time
	if !in.StartTime.IsZero() {
		start = &in.StartTime
	}
	_, err := db.ExecContext(ctx, query,
		in.ID, in.TaskID, string(in.Status), in.PlannedDuration, actual, nullTime(start), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) ListSessions(ctx context.Context, filter SessionListFilter) ([]model.PomodoroSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM pomodoro_sessions`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.TaskID != "" {
		clauses = append(clauses, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, mustTime(filter.Since))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PomodoroSession, 0)
	for rows.Next() {
		item, scanErr := r.scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertCategory(ctx context.Context, in model.Category) error {
	return upsertCategory(ctx, r.db, in)
}

func upsertCategory(ctx context.Context, db dbtx, in model.Category) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (id, name, color, kind) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color, kind = excluded.kind`,
		in.ID, in.Name, in.Color, string(in.Kind),
	)
	return err
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, kind FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &kind); err != nil {
			return nil, err
		}
		c.Kind = model.CategoryKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertProject(ctx context.Context, in model.Project) error {
	return upsertProject(ctx, r.db, in)
}

func upsertProject(ctx context.Context, db dbtx, in model.Project) error {
	priority := in.Priority
	if !priority.IsValid() {
		priority = model.PriorityMedium
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, name, color, priority) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color, priority = excluded.priority`,
		in.ID, in.Name, in.Color, string(priority),
	)
	return err
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, priority FROM projects ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		var priority string
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &priority); err != nil {
			return nil, err
		}
		p.Priority = model.Priority(priority)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullTime(v *time.Time) any {
	if v == nil || v.IsZero() {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func updatedOrCreated(updated, created time.Time) time.Time {
	if updated.IsZero() {
		return created
	}
	return updated
}

func (r *SQLiteRepository) parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	tm = tm.In(r.loc)
	return &tm, nil
}

func (r *SQLiteRepository) parseRequiredTime(v string) (time.Time, error) {
	tm, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return tm.In(r.loc), nil
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var priority, taskType, status string
	var planned, category, project sql.NullString
	var created, updated string
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &priority, &taskType, &status, &out.EstimatedPomodoros,
		&planned, &category, &project, &created, &updated, &out.ScheduledBlockID); err != nil {
		return model.Task{}, err
	}
	out.Priority = model.Priority(priority)
	out.Type = model.TaskType(taskType)
	out.Status = model.TaskStatus(status)
	out.CategoryID = category.String
	out.ProjectID = project.String

	plannedAt, err := r.parseNullableTime(planned)
	if err != nil {
		return model.Task{}, err
	}
	createdAt, err := r.parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	updatedAt, err := r.parseRequiredTime(updated)
	if err != nil {
		return model.Task{}, err
	}
	out.PlannedStartTime = plannedAt
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) scanBlock(s scanner) (model.TimeBlock, error) {
	var out model.TimeBlock
	var date, start, end, blockType string
	var recType sql.NullString
	var recInterval int
	var recWeekdays string
	if err := s.Scan(&out.ID, &date, &start, &end, &blockType, &out.Color, &out.Description,
		&recType, &recInterval, &recWeekdays); err != nil {
		return model.TimeBlock{}, err
	}
	day, err := time.ParseInLocation(sqliteDateLayout, date, r.loc)
	if err != nil {
		return model.TimeBlock{}, err
	}
	startAt, err := r.parseRequiredTime(start)
	if err != nil {
		return model.TimeBlock{}, err
	}
	endAt, err := r.parseRequiredTime(end)
	if err != nil {
		return model.TimeBlock{}, err
	}
	out.Date = day
	out.StartTime = startAt
	out.EndTime = endAt
	out.BlockType = model.BlockType(blockType)
	if recType.Valid && recType.String != "" {
		weekdays, err := parseWeekdays(recWeekdays)
		if err != nil {
			return model.TimeBlock{}, err
		}
		out.Recurrence = &model.RecurrenceRule{
			Type:     model.RecurrenceType(recType.String),
			Interval: recInterval,
			Anchor:   startAt,
			Weekdays: weekdays,
		}
	}
	return out, nil
}

func (r *SQLiteRepository) scanSession(s scanner) (model.PomodoroSession, error) {
	var out model.PomodoroSession
	var status string
	var actual sql.NullInt64
	var start sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.TaskID, &status, &out.PlannedDuration, &actual, &start, &created); err != nil {
		return model.PomodoroSession{}, err
	}
	out.Status = model.SessionStatus(status)
	if actual.Valid {
		v := int(actual.Int64)
		out.ActualDuration = &v
	}
	startAt, err := r.parseNullableTime(start)
	if err != nil {
		return model.PomodoroSession{}, err
	}
	if startAt != nil {
		out.StartTime = *startAt
	}
	createdAt, err := r.parseRequiredTime(created)
	if err != nil {
		return model.PomodoroSession{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

// recurrenceColumns flattens a rule; the anchor is the block's own start.
func recurrenceColumns(rule *model.RecurrenceRule) (any, int, string) {
	if rule == nil {
		return nil, 0, ""
	}
	days := make([]string, 0, len(rule.Weekdays))
	for _, d := range rule.Weekdays {
		days = append(days, strconv.Itoa(int(d)))
	}
	return string(rule.Type), rule.Interval, strings.Join(days, ",")
}

func parseWeekdays(v string) ([]time.Weekday, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("storage: invalid weekday %q", p)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
