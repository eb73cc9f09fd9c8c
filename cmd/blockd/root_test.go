package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportJSON = `{
  "categories": [{"id": "c-work", "name": "Work"}],
  "tasks": [
    {"id": "t-over", "title": "Write chapter", "priority": "HIGH", "estimated_pomodoros": 3,
     "category_id": "c-work", "created_at": "2026-03-01T08:00:00"},
    {"id": "t-free", "title": "Reply to review", "priority": "HIGH", "estimated_pomodoros": 1,
     "created_at": "2026-03-01T09:00:00"},
    {"id": "t-bad", "title": "Broken", "estimated_pomodoros": 1, "created_at": "someday"}
  ],
  "time_blocks": [
    {"id": "b-a", "date": "2026-03-02", "start_time": "2026-03-02T09:00:00", "end_time": "2026-03-02T10:00:00",
     "block_type": "RESEARCH", "scheduled_tasks": ["t-over"]},
    {"id": "b-c", "date": "2026-03-02", "start_time": "2026-03-02T13:00:00", "end_time": "2026-03-02T15:00:00",
     "block_type": "GROWTH"}
  ]
}`

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	dir string
	db  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BLOCKD_TIMEZONE", "UTC")
	t.Setenv("BLOCKD_LOG_LEVEL", "error")
	return testEnv{dir: dir, db: filepath.Join(dir, "data", "blockd.db")}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func() time.Time { return fixedNow })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", e.db, "--date", "2026-03-02"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e testEnv) importFixture(t *testing.T) {
	t.Helper()
	path := filepath.Join(e.dir, "export.json")
	require.NoError(t, os.WriteFile(path, []byte(exportJSON), 0o644))
	out, err := e.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 task(s), 2 block(s)")
	assert.Contains(t, out, "skipped 1")
}

func TestImportCreatesDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	_, err := os.Stat(env.db)
	assert.NoError(t, err)

	// Importing again updates in place.
	path := filepath.Join(env.dir, "export.json")
	out, err := env.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 task(s)")
}

func TestImportMissingFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "import", filepath.Join(env.dir, "nope.json"))
	assert.Error(t, err)
}

func TestPlanRawMarkdown(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	out, err := env.run(t, "plan", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# Plan for Monday, 2026-03-02")
	assert.Contains(t, out, "| 09:00-10:00 | RESEARCH | 60 | Write chapter |")
	assert.Contains(t, out, "## Conflicts (1)")
	assert.Contains(t, out, "fix: `assign t-over b-c`")
}

func TestPlanWritesReport(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	report := filepath.Join(env.dir, "plan.md")
	out, err := env.run(t, "plan", "--output", report)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Plan for"))
}

func TestRecommendListsTasks(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	out, err := env.run(t, "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "Write chapter")
	assert.Contains(t, out, "Reply to review")

	out, err = env.run(t, "recommend", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "recommendations (1)")
}

func TestConflictsAndResolve(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	out, err := env.run(t, "conflicts")
	require.NoError(t, err)
	assert.Contains(t, out, "conflicts (1)")
	assert.Contains(t, out, `task "Write chapter" needs 75 minutes`)

	out, err = env.run(t, "apply", "resolve", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved: moved task t-over to block b-c")

	out, err = env.run(t, "conflicts")
	require.NoError(t, err)
	assert.Contains(t, out, "conflicts (0)")
}

func TestApplyRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	_, err := env.run(t, "apply", "frobnicate")
	assert.Error(t, err)

	_, err = env.run(t, "apply", "resolve", "9")
	assert.Error(t, err)
}

func TestApplyIgnorePersists(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	out, err := env.run(t, "apply", "ignore", "1")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = os.Stat(filepath.Join(env.dir, "data", "decisions.json"))
	assert.NoError(t, err)

	out, err = env.run(t, "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "(ignored)")
}

func TestMetricsMarkdown(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t)

	out, err := env.run(t, "metrics", "--markdown", "--range", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Overall")
}

func TestInvalidFlags(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "metrics", "--range", "fortnight")
	assert.Error(t, err)

	cmd := newRootCmd(func() time.Time { return fixedNow })
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", env.db, "--date", "02/03/2026", "plan"})
	assert.Error(t, cmd.Execute())
}
