package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"otwscraper/pkg/export"
	"otwscraper/pkg/harvest"
	"otwscraper/pkg/models"
)

// TUI runs the harvest dashboard. It implements harvest.Observer so the
// orchestrator can feed it directly.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ harvest.Observer = (*TUI)(nil)

// NewTUI creates a dashboard for q. onStop is called when the operator
// presses q during the run.
func NewTUI(q models.SearchQuery, onStop func()) *TUI {
	model := NewModel(q, onStop)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the dashboard until the operator leaves it
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// PageLoaded implements harvest.Observer
func (t *TUI) PageLoaded(page, newCards int) {
	t.Send(PageLoadedMsg{Page: page, NewCards: newCards})
}

// RecordAccepted implements harvest.Observer
func (t *TUI) RecordAccepted(rec models.ProfileRecord, total int) {
	t.Send(RecordMsg{Record: rec, Total: total})
}

// CardSkipped implements harvest.Observer
func (t *TUI) CardSkipped(reason models.SkipReason, detail string) {
	t.Send(SkipMsg{Reason: reason, Detail: detail})
}

// Pausing implements harvest.Observer
func (t *TUI) Pausing(d time.Duration, long bool) {
	t.Send(PauseMsg{Duration: d, Long: long})
}

// Finish reports the end of the run; the dashboard stays up until dismissed
func (t *TUI) Finish(res *harvest.Result, err error) {
	msg := DoneMsg{Err: err}
	if res != nil {
		msg.Outcome = res.Abort
		msg.Collected = len(res.Records)
	}
	t.Send(msg)
}

// Delivered adds one event log line per sink, plus a pointer to the spool
// when the records are kept for a later export
func (t *TUI) Delivered(reports export.Reports, spoolPath string) {
	for _, msg := range deliveryLogs(reports, spoolPath) {
		t.Send(msg)
	}
}

func deliveryLogs(reports export.Reports, spoolPath string) []LogMsg {
	var out []LogMsg
	for _, rep := range reports {
		if rep.Err != nil {
			out = append(out, logLine("ERROR", "Export to %s failed: %v", rep.Sink, rep.Err))
			continue
		}
		out = append(out, logLine("SUCCESS", "Exported to %s: %s", rep.Sink, rep.Location))
	}
	if spoolPath != "" {
		out = append(out, logLine("WARN", "Records kept for 'otwscraper export' in %s", spoolPath))
	}
	return out
}

func logLine(level, format string, args ...interface{}) LogMsg {
	return LogMsg{Level: level, Message: fmt.Sprintf(format, args...)}
}

// LogInfo adds an info line to the event log
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Send(logLine("INFO", format, args...))
}
