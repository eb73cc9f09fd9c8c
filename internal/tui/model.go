// Package tui is the interactive terminal front end: it shows the current
// plan, refreshes it on the scheduler's cadence, and runs palette commands
// through a session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/blockd/internal/planner"
	"github.com/sandeepkv93/blockd/internal/scheduler"
	"github.com/sandeepkv93/blockd/internal/session"
)

type View string

const (
	ViewPlan    View = "Plan"
	ViewMetrics View = "Metrics"
	ViewReport  View = "Report"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type keyMap struct {
	Plan     key.Binding
	Metrics  key.Binding
	Report   key.Binding
	Up       key.Binding
	Down     key.Binding
	Accept   key.Binding
	Ignore   key.Binding
	Resolve  key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	Refresh  key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Submit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Ignore, k.Resolve, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Plan, k.Metrics, k.Report},
		{k.Up, k.Down, k.PrevDay, k.NextDay},
		{k.Accept, k.Ignore, k.Resolve, k.Refresh},
		{k.Palette, k.Help, k.Quit},
	}
}

func defaultKeys() keyMap {
	return keyMap{
		Plan:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "plan")),
		Metrics: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "metrics")),
		Report:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "report")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next")),
		Accept:  key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "accept")),
		Ignore:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "ignore")),
		Resolve: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix first conflict")),
		PrevDay: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous day")),
		NextDay: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next day")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:  key.NewBinding(key.WithKeys("esc")),
		Submit:  key.NewBinding(key.WithKeys("enter")),
	}
}

type Model struct {
	CurrentView  View
	Plan         planner.Plan
	Selected     int
	Status       StatusBar
	HelpVisible  bool
	PaletteOpen  bool
	Refreshing   bool
	Quitting     bool
	Notification string
	LastError    error

	session   *session.Session
	scheduler *scheduler.Engine
	ctx       context.Context
	keys      keyMap
	width     int

	blocksTable  table.Model
	commandInput textinput.Model
	spin         spinner.Model
	helpModel    help.Model
}

// New builds a model over s. engine may be nil, in which case the plan only
// refreshes on request.
func New(ctx context.Context, s *session.Session, engine *scheduler.Engine) Model {
	m := Model{
		CurrentView: ViewPlan,
		Plan:        s.Plan(),
		Selected:    1,
		session:     s,
		scheduler:   engine,
		ctx:         ctx,
		keys:        defaultKeys(),
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 13},
		{Title: "Type", Width: 13},
		{Title: "Min", Width: 5},
		{Title: "Load", Width: 9},
		{Title: "Tasks", Width: 24},
	}
	m.blocksTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithHeight(10))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "accept 1 · resolve 1 · date 2026-03-02 · range 30d"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	m.helpModel = help.New()
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Plan.Blocks))
	for _, b := range m.Plan.Blocks {
		used := 0
		titles := make([]string, 0, len(b.ScheduledTasks))
		for _, t := range b.ScheduledTasks {
			used += t.RequiredMinutes()
			titles = append(titles, t.Title)
		}
		rows = append(rows, table.Row{
			b.StartTime.Format("15:04") + "-" + b.EndTime.Format("15:04"),
			string(b.BlockType),
			fmt.Sprint(b.DurationMinutes()),
			fmt.Sprintf("%d/%d", used, b.DurationMinutes()),
			strings.Join(titles, ", "),
		})
	}
	m.blocksTable.SetRows(rows)

	n := len(m.Plan.Recommendations.Items)
	if m.Selected > n {
		m.Selected = n
	}
	if m.Selected < 1 && n > 0 {
		m.Selected = 1
	}
	m.helpModel.ShowAll = m.HelpVisible
}
