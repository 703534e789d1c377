package harvest

import (
	"otwscraper/pkg/models"
)

// SessionState is the mutable state of one run. Only the orchestrator holds
// it; the guard sees it through StateView, the pagination driver and dedup
// tracker through narrow unexported methods.
type SessionState struct {
	records          []models.ProfileRecord
	seen             map[string]struct{}
	actionCount      int
	consecutiveEmpty int
	aborted          models.AbortReason
	finalized        bool

	cardsSurfaced   int
	cardsRecognized int
}

func newSessionState() *SessionState {
	return &SessionState{
		records: make([]models.ProfileRecord, 0),
		seen:    make(map[string]struct{}),
	}
}

// RecordCount is the number of records collected so far
func (s *SessionState) RecordCount() int { return len(s.records) }

// ActionCount is the number of paced actions performed so far
func (s *SessionState) ActionCount() int { return s.actionCount }

// ConsecutiveEmptyPages is the current run of advances that revealed nothing new
func (s *SessionState) ConsecutiveEmptyPages() int { return s.consecutiveEmpty }

// Aborted returns the abort reason, or AbortNone
func (s *SessionState) Aborted() models.AbortReason { return s.aborted }

func (s *SessionState) countAction() {
	s.actionCount++
}

// appendRecord refuses records once the run is aborted or finalized
func (s *SessionState) appendRecord(rec models.ProfileRecord) bool {
	if s.finalized || s.aborted != models.AbortNone {
		return false
	}
	s.records = append(s.records, rec)
	return true
}

// abort keeps the first reason
func (s *SessionState) abort(reason models.AbortReason) {
	if s.aborted == models.AbortNone {
		s.aborted = reason
	}
}

func (s *SessionState) observeCards(n int) {
	s.cardsSurfaced += n
}

func (s *SessionState) observeRecognized() {
	s.cardsRecognized++
}

func (s *SessionState) recordEmptyAdvance() int {
	s.consecutiveEmpty++
	return s.consecutiveEmpty
}

func (s *SessionState) resetEmptyAdvances() {
	s.consecutiveEmpty = 0
}

func (s *SessionState) hasSeen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *SessionState) markSeen(key string) {
	s.seen[key] = struct{}{}
}

// Finalize freezes the state and returns a copy of the collected records
func (s *SessionState) Finalize() []models.ProfileRecord {
	s.finalized = true
	out := make([]models.ProfileRecord, len(s.records))
	copy(out, s.records)
	return out
}
