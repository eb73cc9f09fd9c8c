package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/blockd/internal/planner"
	"github.com/sandeepkv93/blockd/internal/scheduler"
)

type PlanMsg struct {
	Plan planner.Plan
	Err  error
}

type ResultMsg struct {
	Text string
	Err  error
}

type EventMsg struct {
	Event scheduler.Event
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), waitForEventCmd(m.schedulerC()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.helpModel.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if m.PaletteOpen {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.Refreshing {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(typed)
			return m, cmd
		}
		return m, nil
	case PlanMsg:
		m.Refreshing = false
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: "refresh failed: " + typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Plan = typed.Plan
		m.syncSchedule()
		return m, nil
	case ResultMsg:
		m.Plan = m.session.Plan()
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: typed.Text}
		m.syncSchedule()
		return m, nil
	case EventMsg:
		return m.handleEvent(typed.Event)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Plan):
		m.CurrentView = ViewPlan
	case key.Matches(msg, m.keys.Metrics):
		m.CurrentView = ViewMetrics
	case key.Matches(msg, m.keys.Report):
		m.CurrentView = ViewReport
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = !m.HelpVisible
	case key.Matches(msg, m.keys.Up):
		if m.Selected > 1 {
			m.Selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Selected < len(m.Plan.Recommendations.Items) {
			m.Selected++
		}
	case key.Matches(msg, m.keys.Accept):
		if m.Selected >= 1 {
			return m, m.runCmd(fmt.Sprintf("accept %d", m.Selected))
		}
	case key.Matches(msg, m.keys.Ignore):
		if m.Selected >= 1 {
			return m, m.runCmd(fmt.Sprintf("ignore %d", m.Selected))
		}
	case key.Matches(msg, m.keys.Resolve):
		for i, c := range m.Plan.Conflicts.Conflicts {
			if c.AutoFixable {
				return m, m.runCmd(fmt.Sprintf("resolve %d", i+1))
			}
		}
		m.Status = StatusBar{Text: "no auto-fixable conflict"}
	case key.Matches(msg, m.keys.PrevDay):
		return m, m.runCmd("date " + m.Plan.Date.AddDate(0, 0, -1).Format("2006-01-02"))
	case key.Matches(msg, m.keys.NextDay):
		return m, m.runCmd("date " + m.Plan.Date.AddDate(0, 0, 1).Format("2006-01-02"))
	case key.Matches(msg, m.keys.Refresh):
		m.Refreshing = true
		m.Status = StatusBar{Text: "refreshing"}
		return m, tea.Batch(m.spin.Tick, m.refreshCmd())
	case key.Matches(msg, m.keys.Palette):
		m.PaletteOpen = true
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
	}
	return m, nil
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		input := strings.TrimSpace(m.commandInput.Value())
		m.closePalette()
		if input == "" {
			return m, nil
		}
		return m, m.runCmd(input)
	}
	if msg.Type == tea.KeyRunes {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m *Model) closePalette() {
	m.PaletteOpen = false
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handleEvent(ev scheduler.Event) (Model, tea.Cmd) {
	wait := waitForEventCmd(m.schedulerC())
	switch ev.Kind {
	case scheduler.KindRefresh:
		return m, tea.Batch(m.refreshCmd(), wait)
	case scheduler.KindBlockStart, scheduler.KindBlockEnd:
		m.Notification = m.blockNotice(ev)
		return m, tea.Batch(m.refreshCmd(), wait)
	}
	return m, wait
}

func (m Model) blockNotice(ev scheduler.Event) string {
	verb := "starting"
	if ev.Kind == scheduler.KindBlockEnd {
		verb = "ending"
	}
	for _, b := range m.Plan.Blocks {
		if b.ID != ev.BlockID {
			continue
		}
		if ev.Kind == scheduler.KindBlockStart && len(b.ScheduledTasks) > 0 {
			return fmt.Sprintf("%s block %s: %s", b.BlockType, verb, b.ScheduledTasks[0].Title)
		}
		return fmt.Sprintf("%s block %s", b.BlockType, verb)
	}
	return "time block " + verb
}

// syncSchedule points block events at the blocks of the plan on screen.
func (m *Model) syncSchedule() {
	if m.scheduler == nil {
		return
	}
	if _, err := m.scheduler.SyncBlocks(m.Plan.Blocks); err != nil {
		m.Status = StatusBar{Text: "block events: " + err.Error(), IsError: true}
	}
}

func (m Model) schedulerC() <-chan scheduler.Event {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.C()
}

func (m Model) refreshCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		plan, err := s.Refresh(ctx)
		return PlanMsg{Plan: plan, Err: err}
	}
}

func (m Model) runCmd(input string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := s.Run(ctx, input)
		return ResultMsg{Text: res.Message, Err: err}
	}
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}
