package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"otwscraper/pkg/models"
)

// RunState is where the dashboard's run currently is
type RunState int

const (
	StateRunning RunState = iota
	StatePausing
	StateStopping
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "HARVESTING"
	case StatePausing:
		return "PAUSED"
	case StateStopping:
		return "STOPPING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Model is the harvest dashboard state. Bubbletea drives it from a single
// goroutine; harvest events reach it as messages.
type Model struct {
	// UI components
	spinner spinner.Model
	bar     progress.Model

	// Run
	label      string
	target     int
	collected  int
	pages      int
	cardsSeen  int
	skipped    map[models.SkipReason]int
	recent     []models.ProfileRecord
	maxRecent  int
	state      RunState
	pauseUntil time.Time
	longPauses int
	outcome    models.AbortReason
	runErr     error

	startTime time.Time
	now       func() time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	// onStop is called once when the operator asks to stop the run
	onStop func()
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a dashboard for q. onStop may be nil.
func NewModel(q models.SearchQuery, onStop func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	label := q.JobTitle
	if q.Location != "" {
		label += " @ " + q.Location
	}

	return Model{
		spinner:        s,
		bar:            progress.New(progress.WithDefaultGradient()),
		label:          label,
		target:         q.MaxProfiles,
		skipped:        make(map[models.SkipReason]int),
		maxRecent:      8,
		startTime:      time.Now(),
		now:            time.Now,
		maxLogMessages: 50,
		onStop:         onStop,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// PageLoaded records a result page load
func (m *Model) PageLoaded(page, newCards int) {
	m.pages = page
	m.cardsSeen += newCards
	if m.state == StatePausing {
		m.state = StateRunning
	}
	m.AddLogMessage("INFO", fmt.Sprintf("Page %d loaded, %d new cards", page, newCards))
}

// RecordAccepted records a collected profile
func (m *Model) RecordAccepted(rec models.ProfileRecord, total int) {
	m.collected = total
	m.recent = append(m.recent, rec)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
	if m.state == StatePausing {
		m.state = StateRunning
	}
}

// CardSkipped counts a card that produced no profile
func (m *Model) CardSkipped(reason models.SkipReason, detail string) {
	m.skipped[reason]++
	if reason == models.SkipMalformed {
		m.AddLogMessage("WARN", "Unreadable card: "+detail)
	}
}

// Pausing records an upcoming wait. Only long pauses change the state.
func (m *Model) Pausing(d time.Duration, long bool) {
	if !long {
		return
	}
	m.longPauses++
	m.pauseUntil = m.now().Add(d)
	if m.state == StateRunning {
		m.state = StatePausing
	}
	m.AddLogMessage("WARN", "Long pause for "+formatDuration(d))
}

// Finish records the end of the run
func (m *Model) Finish(outcome models.AbortReason, collected int, err error) {
	m.state = StateDone
	m.outcome = outcome
	m.collected = collected
	m.runErr = err

	switch {
	case err != nil:
		m.AddLogMessage("ERROR", "Run failed: "+err.Error())
	case outcome.Successful():
		m.AddLogMessage("SUCCESS", fmt.Sprintf("%s: %d profiles", outcome, collected))
	default:
		m.AddLogMessage("WARN", fmt.Sprintf("%s: %s", outcome, outcome.Description()))
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Percent is the share of the requested profiles collected so far
func (m *Model) Percent() float64 {
	if m.target <= 0 {
		return 0
	}
	p := float64(m.collected) / float64(m.target)
	if p > 1 {
		p = 1
	}
	return p
}

// SkippedTotal sums every skip reason
func (m *Model) SkippedTotal() int {
	total := 0
	for _, n := range m.skipped {
		total += n
	}
	return total
}

// skipLines lists skip counts in a stable order
func (m *Model) skipLines() []string {
	reasons := make([]string, 0, len(m.skipped))
	for r := range m.skipped {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)

	lines := make([]string, 0, len(reasons))
	for _, r := range reasons {
		lines = append(lines, fmt.Sprintf("%s %d", r, m.skipped[models.SkipReason(r)]))
	}
	return lines
}

// PauseRemaining is the time left in the current long pause
func (m *Model) PauseRemaining() time.Duration {
	if m.state != StatePausing {
		return 0
	}
	left := m.pauseUntil.Sub(m.now())
	if left < 0 {
		return 0
	}
	return left
}

// Rate is accepted profiles per minute
func (m *Model) Rate() float64 {
	elapsed := m.now().Sub(m.startTime)
	if elapsed <= 0 {
		return 0
	}
	return float64(m.collected) / elapsed.Minutes()
}

// State returns the run state
func (m *Model) State() RunState {
	return m.state
}

// requestStop asks the run to stop; the run reports back through Finish
func (m *Model) requestStop() {
	if m.state == StateDone || m.state == StateStopping {
		return
	}
	m.state = StateStopping
	m.AddLogMessage("WARN", "Stop requested, finishing current step")
	if m.onStop != nil {
		m.onStop()
	}
}
