package harvest

import (
	"strings"

	"otwscraper/pkg/parser"
)

// DedupTracker remembers which profile URLs the session already holds.
// Result lists re-render overlapping cards, so a repeat is expected and
// silently dropped.
type DedupTracker struct {
	state *SessionState
}

// NewDedupTracker tracks identities inside state
func NewDedupTracker(state *SessionState) *DedupTracker {
	return &DedupTracker{state: state}
}

// IsNew reports whether url has not been marked seen
func (d *DedupTracker) IsNew(url string) bool {
	return !d.state.hasSeen(dedupKey(url))
}

// MarkSeen records url
func (d *DedupTracker) MarkSeen(url string) {
	d.state.markSeen(dedupKey(url))
}

func dedupKey(url string) string {
	if normalized, err := parser.NormalizeProfileURL(url); err == nil {
		return normalized
	}
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
