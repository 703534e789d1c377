package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"otwscraper/pkg/models"
)

// Message types for the TUI

// PageLoadedMsg is sent when a result page is loaded
type PageLoadedMsg struct {
	Page     int
	NewCards int
}

// RecordMsg is sent when a profile is accepted
type RecordMsg struct {
	Record models.ProfileRecord
	Total  int
}

// SkipMsg is sent when a card is skipped
type SkipMsg struct {
	Reason models.SkipReason
	Detail string
}

// PauseMsg is sent before the run waits
type PauseMsg struct {
	Duration time.Duration
	Long     bool
}

// DoneMsg is sent once when the run has ended
type DoneMsg struct {
	Outcome   models.AbortReason
	Collected int
	Err       error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.state == StatePausing && m.PauseRemaining() == 0 {
			m.state = StateRunning
		}
		return m, tickCmd()

	case PageLoadedMsg:
		m.PageLoaded(msg.Page, msg.NewCards)
		return m, nil

	case RecordMsg:
		m.RecordAccepted(msg.Record, msg.Total)
		return m, nil

	case SkipMsg:
		m.CardSkipped(msg.Reason, msg.Detail)
		return m, nil

	case PauseMsg:
		m.Pausing(msg.Duration, msg.Long)
		return m, nil

	case DoneMsg:
		m.Finish(msg.Outcome, msg.Collected, msg.Err)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input. The first q stops the run; once
// the run is done any quit key leaves the dashboard.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		if m.state == StateDone {
			return m, tea.Quit
		}
		m.requestStop()
		return m, nil

	case "enter":
		if m.state == StateDone {
			return m, tea.Quit
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []LogMessage{}
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
