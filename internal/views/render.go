// Package views turns planner results into terminal text.
package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/blockd/internal/conflict"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

type AppData struct {
	Header       string
	LeftPane     string
	RightPane    string
	BottomPane   string
	StatusLine   string
	Footer       string
	Notification string
	// Width is the terminal width; panes split it evenly when positive.
	Width int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var severityStyles = map[conflict.Severity]lipgloss.Style{
	conflict.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	conflict.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	conflict.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	conflict.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
}

var levelStyles = map[recommend.Level]lipgloss.Style{
	recommend.LevelUrgent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	recommend.LevelHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	recommend.LevelMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	recommend.LevelLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

func RenderApp(data AppData) string {
	paneWidth := 58
	if data.Width > 0 {
		paneWidth = max(24, data.Width/2-4)
	}
	left := panelStyle.Width(paneWidth).Render(data.LeftPane)
	right := panelStyle.Width(paneWidth).Render(data.RightPane)
	row := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := statusStyle.Render(data.StatusLine)
	if strings.Contains(strings.ToLower(data.StatusLine), "error") {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
	}
	if data.BottomPane != "" {
		lines = append(lines, panelStyle.Width(2*paneWidth+2).Render(data.BottomPane))
	}
	lines = append(lines, status)
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown falls back to the raw text when glamour cannot render it.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func severityBadge(s conflict.Severity) string {
	label := "[" + strings.ToUpper(string(s)) + "]"
	if style, ok := severityStyles[s]; ok {
		return style.Render(label)
	}
	return label
}

func levelBadge(l recommend.Level) string {
	if style, ok := levelStyles[l]; ok {
		return style.Render(string(l))
	}
	return string(l)
}
