package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"otwscraper/pkg/models"
)

func TestStateRejectsRecordsAfterAbort(t *testing.T) {
	s := newSessionState()
	assert.True(t, s.appendRecord(models.ProfileRecord{ProfileURL: "https://www.linkedin.com/in/a"}))

	s.abort(models.AbortRateLimitDetected)
	s.abort(models.AbortLoginRequired)
	assert.Equal(t, models.AbortRateLimitDetected, s.Aborted())

	assert.False(t, s.appendRecord(models.ProfileRecord{ProfileURL: "https://www.linkedin.com/in/b"}))
	assert.Equal(t, 1, s.RecordCount())
}

func TestStateFinalizeReturnsCopy(t *testing.T) {
	s := newSessionState()
	s.appendRecord(models.ProfileRecord{FirstName: "Ana", ProfileURL: "https://www.linkedin.com/in/ana"})

	out := s.Finalize()
	out[0].FirstName = "changed"

	again := s.Finalize()
	assert.Equal(t, "Ana", again[0].FirstName)
	assert.False(t, s.appendRecord(models.ProfileRecord{ProfileURL: "https://www.linkedin.com/in/b"}))
}

func TestDedupTracker(t *testing.T) {
	d := NewDedupTracker(newSessionState())

	assert.True(t, d.IsNew("https://www.linkedin.com/in/jane-doe/"))
	d.MarkSeen("https://www.linkedin.com/in/jane-doe/")
	d.MarkSeen("https://www.linkedin.com/in/jane-doe/")

	assert.False(t, d.IsNew("https://www.linkedin.com/in/jane-doe"))
	assert.False(t, d.IsNew("https://fr.linkedin.com/in/jane-doe?trk=x"))
	assert.True(t, d.IsNew("https://www.linkedin.com/in/john-doe"))
}
