package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"otwscraper/pkg/export"
	"otwscraper/pkg/models"
)

func newTestModel(onStop func()) *Model {
	m := NewModel(models.SearchQuery{JobTitle: "QA Engineer", Location: "Lille", MaxProfiles: 4}, onStop)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	m.startTime = start
	m.now = func() time.Time { return clock }
	return &m
}

func key(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	m := newTestModel(nil)

	if m.label != "QA Engineer @ Lille" {
		t.Errorf("Expected label %q, got %q", "QA Engineer @ Lille", m.label)
	}

	m.Update(PageLoadedMsg{Page: 1, NewCards: 10})
	if m.pages != 1 || m.cardsSeen != 10 {
		t.Errorf("Expected page 1 with 10 cards, got page %d with %d cards", m.pages, m.cardsSeen)
	}

	m.Update(RecordMsg{Record: models.ProfileRecord{FirstName: "Ada", LastName: "Martin"}, Total: 1})
	m.Update(RecordMsg{Record: models.ProfileRecord{FirstName: "Léa", LastName: "Dubois"}, Total: 2})
	if m.collected != 2 {
		t.Errorf("Expected 2 collected, got %d", m.collected)
	}
	if m.Percent() != 0.5 {
		t.Errorf("Expected 0.5 progress, got %f", m.Percent())
	}

	m.Update(SkipMsg{Reason: models.SkipNotOpenToWork})
	m.Update(SkipMsg{Reason: models.SkipNotOpenToWork})
	m.Update(SkipMsg{Reason: models.SkipMalformed, Detail: "card 7"})
	if m.SkippedTotal() != 3 {
		t.Errorf("Expected 3 skipped, got %d", m.SkippedTotal())
	}
	lines := m.skipLines()
	if len(lines) != 2 || lines[0] != "MALFORMED 1" || lines[1] != "NOT_OPEN_TO_WORK 2" {
		t.Errorf("Unexpected skip lines: %v", lines)
	}
}

func TestRecentProfilesAreCapped(t *testing.T) {
	m := newTestModel(nil)
	for i := 1; i <= 12; i++ {
		m.RecordAccepted(models.ProfileRecord{FirstName: "P", LastName: strings.Repeat("x", i)}, i)
	}
	if len(m.recent) != m.maxRecent {
		t.Errorf("Expected %d recent profiles, got %d", m.maxRecent, len(m.recent))
	}
	if got := m.recent[len(m.recent)-1].LastName; got != strings.Repeat("x", 12) {
		t.Errorf("Expected newest profile last, got %q", got)
	}
	if m.Percent() != 1 {
		t.Errorf("Expected progress capped at 1, got %f", m.Percent())
	}
}

func TestLongPause(t *testing.T) {
	m := newTestModel(nil)

	m.Update(PauseMsg{Duration: 3 * time.Second, Long: false})
	if m.State() != StateRunning {
		t.Errorf("Short pause should not change state, got %s", m.State())
	}

	m.Update(PauseMsg{Duration: 2 * time.Minute, Long: true})
	if m.State() != StatePausing {
		t.Errorf("Expected PAUSED, got %s", m.State())
	}
	if m.PauseRemaining() != 2*time.Minute {
		t.Errorf("Expected 2m remaining, got %s", m.PauseRemaining())
	}

	m.Update(PageLoadedMsg{Page: 2, NewCards: 10})
	if m.State() != StateRunning {
		t.Errorf("Expected HARVESTING after the next page, got %s", m.State())
	}
}

func TestStopAndQuit(t *testing.T) {
	stops := 0
	m := newTestModel(func() { stops++ })

	_, cmd := m.Update(key("q"))
	if cmd != nil {
		t.Errorf("First q during the run should not quit the dashboard")
	}
	if m.State() != StateStopping {
		t.Errorf("Expected STOPPING, got %s", m.State())
	}

	m.Update(key("ctrl+c"))
	if stops != 1 {
		t.Errorf("Expected onStop to be called once, got %d", stops)
	}

	m.Update(DoneMsg{Outcome: models.AbortInterrupted, Collected: 2})
	if m.State() != StateDone || m.outcome != models.AbortInterrupted {
		t.Errorf("Expected DONE with INTERRUPTED, got %s with %s", m.State(), m.outcome)
	}

	_, cmd = m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command after the run finished")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg")
	}
}

func TestFinishLogsOutcome(t *testing.T) {
	m := newTestModel(nil)
	m.Finish(models.AbortMaxProfilesReached, 4, nil)
	last := m.logMessages[len(m.logMessages)-1]
	if last.Level != "SUCCESS" || !strings.Contains(last.Message, "MAX_PROFILES_REACHED") {
		t.Errorf("Unexpected log %+v", last)
	}

	m = newTestModel(nil)
	m.Finish(models.AbortRateLimitDetected, 1, nil)
	if last := m.logMessages[len(m.logMessages)-1]; last.Level != "WARN" {
		t.Errorf("Expected WARN for a rate limit, got %s", last.Level)
	}

	m = newTestModel(nil)
	m.Finish(models.AbortNone, 0, errors.New("browser crashed"))
	if last := m.logMessages[len(m.logMessages)-1]; last.Level != "ERROR" {
		t.Errorf("Expected ERROR for a failed run, got %s", last.Level)
	}
}

func TestLogMessagesAreCapped(t *testing.T) {
	m := newTestModel(nil)
	for i := 0; i < 60; i++ {
		m.Update(LogMsg{Level: "INFO", Message: "x"})
	}
	if len(m.logMessages) != 50 {
		t.Errorf("Expected 50 log messages, got %d", len(m.logMessages))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.logMessages) != 0 {
		t.Errorf("Expected logs cleared, got %d", len(m.logMessages))
	}
}

func TestView(t *testing.T) {
	m := newTestModel(nil)
	if m.View() != "Initializing..." {
		t.Errorf("Expected placeholder before the first resize")
	}

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	m.Update(RecordMsg{Record: models.ProfileRecord{FirstName: "Ada", LastName: "Martin", Headline: "QA Engineer"}, Total: 1})
	out := m.View()
	for _, want := range []string{"QA Engineer @ Lille", "1/4", "Ada Martin", "HARVESTING"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{-time.Second, "00:00"},
		{42 * time.Second, "00:42"},
		{3*time.Minute + 5*time.Second, "03:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}

	for _, test := range tests {
		if got := formatDuration(test.d); got != test.expected {
			t.Errorf("formatDuration(%s) = %s, expected %s", test.d, got, test.expected)
		}
	}
}

func TestDeliveryLogs(t *testing.T) {
	reports := export.Reports{
		{Sink: "csv", Location: "output/qa_engineer_lille.csv"},
		{Sink: "sheets", Err: errors.New("quota exceeded")},
	}

	logs := deliveryLogs(reports, "/tmp/spool/run-1.json")
	if len(logs) != 3 {
		t.Fatalf("Expected 3 log lines, got %d", len(logs))
	}
	if logs[0].Level != "SUCCESS" || !strings.Contains(logs[0].Message, "output/qa_engineer_lille.csv") {
		t.Errorf("Unexpected success line: %+v", logs[0])
	}
	if logs[1].Level != "ERROR" || !strings.Contains(logs[1].Message, "quota exceeded") {
		t.Errorf("Unexpected failure line: %+v", logs[1])
	}
	if logs[2].Level != "WARN" || !strings.Contains(logs[2].Message, "run-1.json") {
		t.Errorf("Unexpected spool line: %+v", logs[2])
	}

	if got := deliveryLogs(export.Reports{{Sink: "csv", Location: "a.csv"}}, ""); len(got) != 1 {
		t.Errorf("Expected only the success line without a spool, got %d", len(got))
	}
}
