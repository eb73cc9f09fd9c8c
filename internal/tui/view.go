package tui

import (
	"fmt"

	"github.com/sandeepkv93/blockd/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	header := fmt.Sprintf("blockd · %s · %s", m.Plan.Date.Format("Mon 2006-01-02"), m.CurrentView)
	if !m.Plan.GeneratedAt.IsZero() {
		header += " · updated " + m.Plan.GeneratedAt.Format("15:04:05")
	}
	if m.Refreshing {
		header += " " + m.spin.View()
	}

	data := views.AppData{
		Header:       header,
		StatusLine:   m.Status.Text,
		Notification: views.RenderNotification("info", m.Notification),
		Footer:       m.helpModel.View(m.keys),
		Width:        m.width,
	}
	if m.Status.IsError && data.StatusLine != "" {
		data.StatusLine = "error: " + m.Status.Text
	}

	switch m.CurrentView {
	case ViewMetrics:
		data.LeftPane = views.RenderMetricsPanel(m.Plan.Metrics)
		data.RightPane = renderDaily(m)
	case ViewReport:
		return views.RenderMarkdown(views.Markdown(m.Plan), m.width) + "\n" + data.Footer
	default:
		data.LeftPane = "time blocks\n" + m.blocksTable.View() + "\n\n" + views.RenderConflictsPanel(m.Plan.Conflicts)
		data.RightPane = views.RenderRecommendationsPanel(m.Plan.Recommendations, m.Selected)
	}
	if m.PaletteOpen {
		data.BottomPane = m.commandInput.View()
	}
	if m.HelpVisible {
		data.BottomPane = views.RenderHelpPanel(nil, m.helpModel.View(m.keys))
		data.Footer = ""
	}
	return views.RenderApp(data)
}

func renderDaily(m Model) string {
	if len(m.Plan.Metrics.Daily) == 0 {
		return "daily:\n(no activity in range)"
	}
	out := "daily:\n"
	for _, d := range m.Plan.Metrics.Daily {
		out += fmt.Sprintf("%s  tasks %d/%d  sessions %d  focus %dm\n", d.Date, d.CompletedTasks, d.TotalTasks, d.Sessions, d.FocusMinutes)
	}
	return out
}
