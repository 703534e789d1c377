package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
 ██████╗ ████████╗██╗    ██╗
██╔═══██╗╚══██╔══╝██║    ██║
██║   ██║   ██║   ██║ █╗ ██║
╚██████╔╝   ██║   ╚███╔███╔╝
 ╚═════╝    ╚═╝    ╚══╝╚══╝   open-to-work harvester`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderSkipPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	switch {
	case m.showHelp:
		sections = append(sections, m.renderHelp())
	case m.state == StateDone:
		sections = append(sections, helpStyle.Render("Run finished. Press q or enter to continue"))
	default:
		sections = append(sections, helpStyle.Render("Press q to stop the run, ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderStatsPanel renders the run progress
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" " + m.label + " ")

	status := m.spinner.View() + " " + statusStyle(m.state).Render(m.state.String())
	if m.state == StateDone {
		status = statusStyle(m.state).Render(m.outcome.String())
	}

	m.bar.Width = width - 8
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}

	stats := []string{
		status,
		"",
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Collected:"),
			statsValueStyle.Render(fmt.Sprintf("%d/%d", m.collected, m.target))),
		m.bar.ViewAs(m.Percent()),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Pages:"), statsValueStyle.Render(fmt.Sprintf("%d", m.pages))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Cards seen:"), statsValueStyle.Render(fmt.Sprintf("%d", m.cardsSeen))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), speedStyle.Render(fmt.Sprintf("%.1f/min", m.Rate()))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"),
			statsValueStyle.Render(formatDuration(m.now().Sub(m.startTime)))),
	}
	if left := m.PauseRemaining(); left > 0 {
		stats = append(stats, warningStyle.Render("⏸  long pause, "+formatDuration(left)+" left"))
	}
	if m.runErr != nil {
		stats = append(stats, errorStyle.Render(truncate(m.runErr.Error(), width-6)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

// renderSkipPanel renders skip counts by reason
func (m *Model) renderSkipPanel(width int) string {
	title := titleStyle.Render(" SKIPPED ")

	lines := m.skipLines()
	content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing skipped")
	if len(lines) > 0 {
		content = strings.Join(lines, "\n")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderRecentPanel renders the most recently accepted profiles
func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" LATEST PROFILES ")

	if len(m.recent) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No profiles yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	items := make([]string, 0, len(m.recent))
	for i := len(m.recent) - 1; i >= 0; i-- {
		r := m.recent[i]
		line := profileNameStyle.Render(truncate(r.FullName(), 28))
		if r.Headline != "" {
			line += " " + profileHeadlineStyle.Render(truncate(r.Headline, width-36))
		}
		items = append(items, line)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" EVENTS ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No events yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/esc    - Stop the run (quit once it has finished)
    ctrl+l   - Clear events
    ?        - Toggle this help

  Status:
    ` + successStyle.Render("HARVESTING") + ` - Reading result pages
    ` + warningStyle.Render("PAUSED") + `     - Long human-like pause
    ` + errorStyle.Render("STOPPING") + `   - Waiting for the current step
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%02d:%02d", mins, s)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
