package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
	"otwscraper/pkg/retry"
	"otwscraper/pkg/storage"
)

var scrapedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleBatch() Batch {
	return Batch{
		RunID: "run-1",
		Query: models.SearchQuery{JobTitle: "QA Engineer", Location: "Lille", MaxProfiles: 10},
		Records: []models.ProfileRecord{
			{
				FirstName:      "Jane",
				LastName:       "Doe",
				Headline:       "QA Engineer, testing \"everything\"",
				CurrentCompany: "Acme",
				Location:       "Lille, France",
				ProfileURL:     "https://www.linkedin.com/in/janedoe",
				OpenToWork:     true,
				ScrapedAt:      scrapedAt,
			},
			{
				FirstName:  "Cher",
				Location:   "Lille",
				ProfileURL: "https://www.linkedin.com/in/cher",
				OpenToWork: true,
				ScrapedAt:  scrapedAt,
			},
		},
		StartedAt:  scrapedAt.Add(-5 * time.Minute),
		FinishedAt: scrapedAt,
	}
}

func TestCSVSink(t *testing.T) {
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	sink := NewCSVSink(store, logger.NewTestLogger())
	require.NoError(t, sink.Write(context.Background(), sampleBatch()))

	assert.Equal(t, "linkedin_opentowork_20260314_093000.csv", filepath.Base(sink.Location()))

	f, err := os.Open(sink.Location())
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeaders, rows[0])
	assert.Equal(t, []string{
		"Jane", "Doe", "Jane Doe", "QA Engineer, testing \"everything\"", "Acme",
		"Lille, France", "https://www.linkedin.com/in/janedoe", "true", "2026-03-14T09:30:00Z",
	}, rows[1])
	assert.Equal(t, "Cher", rows[2][2])
	assert.Equal(t, "", rows[2][1])
}

func TestCSVSinkEmptyBatchWritesHeader(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	sink := NewCSVSink(store, logger.NewTestLogger())
	require.NoError(t, sink.Write(context.Background(), Batch{FinishedAt: scrapedAt}))

	data, err := os.ReadFile(sink.Location())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(csvHeaders, ",")+"\n", string(data))
}

func TestCSVSinkDoesNotOverwrite(t *testing.T) {
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	sink := NewCSVSink(store, logger.NewTestLogger())
	require.NoError(t, sink.Write(context.Background(), sampleBatch()))
	first := sink.Location()
	require.NoError(t, sink.Write(context.Background(), sampleBatch()))

	assert.NotEqual(t, first, sink.Location())
	assert.Equal(t, "linkedin_opentowork_20260314_093000_1.csv", filepath.Base(sink.Location()))
}

func TestCSVSinkCancelledContext(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := NewCSVSink(store, logger.NewTestLogger())
	assert.ErrorIs(t, sink.Write(ctx, sampleBatch()), context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// fakeSheets keeps one tab in memory and records the calls a SheetsSink
// makes
type fakeSheets struct {
	mu        sync.Mutex
	rows      [][]interface{}
	failFirst int
	status    int
	// commitThenFail applies that many appends but answers them with status
	commitThenFail int
	calls          []string
	appended       [][]interface{}
	query          map[string]string
}

// withHeader starts the tab with a header row
func (f *fakeSheets) withHeader() *fakeSheets {
	f.rows = [][]interface{}{{"First Name"}}
	return f
}

func (f *fakeSheets) fail(w http.ResponseWriter) {
	w.WriteHeader(f.status)
	io.WriteString(w, `{"error":{"code":`+strconv.Itoa(f.status)+`,"message":"try later"}}`)
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	var call string
	switch {
	case strings.HasSuffix(path, ":append"):
		call = "append"
	case strings.HasSuffix(path, ":clear"):
		call = "clear"
	default:
		call = "get"
	}
	f.calls = append(f.calls, call)

	if f.failFirst > 0 {
		f.failFirst--
		f.fail(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch call {
	case "get":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Sheet1!A1:I1000",
			"majorDimension": "ROWS",
			"values":         f.rows,
		})
	case "clear":
		f.rows = nil
		io.WriteString(w, `{"spreadsheetId":"sheet-id","clearedRange":"Sheet1!A1:Z100"}`)
	case "append":
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.appended = body.Values
		f.rows = append(f.rows, body.Values...)
		f.query = map[string]string{
			"valueInputOption": r.URL.Query().Get("valueInputOption"),
			"insertDataOption": r.URL.Query().Get("insertDataOption"),
		}
		if f.commitThenFail > 0 {
			f.commitThenFail--
			f.fail(w)
			return
		}
		fmt.Fprintf(w, `{"spreadsheetId":"sheet-id","updates":{"updatedRows":%d}}`, len(body.Values))
	}
}

func newTestSheetsSink(t *testing.T, fake *fakeSheets, clear bool) *SheetsSink {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	sink, err := NewSheetsSink(context.Background(), SheetsConfig{
		SpreadsheetID: "sheet-id",
		ClearExisting: clear,
		Retry: &retry.Config{
			MaxAttempts: 3,
			Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		},
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithoutAuthentication(),
		},
		Logger: logger.NewTestLogger(),
	})
	require.NoError(t, err)
	return sink
}

func TestSheetsSinkWritesHeaderOnEmptySheet(t *testing.T) {
	fake := &fakeSheets{}
	sink := newTestSheetsSink(t, fake, false)

	require.NoError(t, sink.Write(context.Background(), sampleBatch()))

	assert.Equal(t, []string{"get", "append"}, fake.calls)
	require.Len(t, fake.appended, 3)
	assert.Equal(t, "First Name", fake.appended[0][0])
	assert.Equal(t, "Scraped At", fake.appended[0][8])
	assert.Equal(t, []interface{}{
		"Jane", "Doe", "Jane Doe", "QA Engineer, testing \"everything\"", "Acme",
		"Lille, France", "https://www.linkedin.com/in/janedoe", "Yes", "2026-03-14 09:30:00",
	}, fake.appended[1])
	assert.Equal(t, "RAW", fake.query["valueInputOption"])
	assert.Equal(t, "INSERT_ROWS", fake.query["insertDataOption"])
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-id", sink.Location())
}

func TestSheetsSinkSkipsHeaderWhenPresent(t *testing.T) {
	fake := (&fakeSheets{}).withHeader()
	sink := newTestSheetsSink(t, fake, false)

	require.NoError(t, sink.Write(context.Background(), sampleBatch()))

	require.Len(t, fake.appended, 2)
	assert.Equal(t, "Jane", fake.appended[0][0])
}

func TestSheetsSinkClearsRightBeforeAppend(t *testing.T) {
	fake := (&fakeSheets{}).withHeader()
	sink := newTestSheetsSink(t, fake, true)

	require.NoError(t, sink.Write(context.Background(), sampleBatch()))
	assert.Equal(t, []string{"clear", "append"}, fake.calls)
	require.Len(t, fake.rows, 3, "header plus two records replace the old rows")
	assert.Equal(t, "First Name", fake.rows[0][0])
	assert.Equal(t, "Jane", fake.rows[1][0])
}

func TestSheetsSinkClearKeepsRowsWhenClearFails(t *testing.T) {
	fake := (&fakeSheets{failFirst: 1, status: http.StatusBadRequest}).withHeader()
	sink := newTestSheetsSink(t, fake, true)

	require.Error(t, sink.Write(context.Background(), sampleBatch()))
	assert.Equal(t, []string{"clear"}, fake.calls)
	assert.Len(t, fake.rows, 1)
}

func TestSheetsSinkAppendThatLandedIsNotRepeated(t *testing.T) {
	fake := (&fakeSheets{commitThenFail: 1, status: http.StatusServiceUnavailable}).withHeader()
	sink := newTestSheetsSink(t, fake, false)

	require.NoError(t, sink.Write(context.Background(), sampleBatch()))
	assert.Equal(t, []string{"get", "append", "get"}, fake.calls)
	assert.Len(t, fake.rows, 3, "each record is written once")
}

func TestSheetsSinkAppendRetriedWhenNothingLanded(t *testing.T) {
	fake := (&fakeSheets{}).withHeader()
	sink := newTestSheetsSink(t, fake, false)

	ctx := context.Background()
	before, err := sink.countRows(ctx)
	require.NoError(t, err)

	// the first append is rejected outright, so nothing lands
	fake.status = http.StatusServiceUnavailable
	fake.failFirst = 1

	updated, err := sink.appendRows(ctx, [][]interface{}{{"Jane"}, {"John"}}, before)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.Equal(t, []string{"get", "append", "get", "append"}, fake.calls)
	assert.Len(t, fake.rows, 3)
}

func TestSheetsSinkEmptyBatch(t *testing.T) {
	fake := &fakeSheets{}
	sink := newTestSheetsSink(t, fake, false)

	require.NoError(t, sink.Write(context.Background(), Batch{}))
	assert.Empty(t, fake.calls)
}

func TestSheetsSinkRetriesServerErrors(t *testing.T) {
	fake := &fakeSheets{failFirst: 1, status: http.StatusServiceUnavailable}
	sink := newTestSheetsSink(t, fake, false)

	require.NoError(t, sink.Write(context.Background(), sampleBatch()))
	assert.Equal(t, []string{"get", "get", "append"}, fake.calls)
}

func TestSheetsSinkDoesNotRetryClientErrors(t *testing.T) {
	fake := &fakeSheets{failFirst: 1, status: http.StatusBadRequest}
	sink := newTestSheetsSink(t, fake, false)

	err := sink.Write(context.Background(), sampleBatch())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindExport))
	assert.Equal(t, []string{"get"}, fake.calls)
}

func TestNewSheetsSinkValidation(t *testing.T) {
	_, err := NewSheetsSink(context.Background(), SheetsConfig{})
	assert.True(t, errs.Is(err, errs.KindConfig))

	_, err = NewSheetsSink(context.Background(), SheetsConfig{SpreadsheetID: "x"})
	assert.True(t, errs.Is(err, errs.KindConfig))

	_, err = NewSheetsSink(context.Background(), SheetsConfig{
		SpreadsheetID:   "x",
		CredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestSQLiteSinkUpserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "profiles.db")
	sink := NewSQLiteSink(path, logger.NewTestLogger())

	batch := sampleBatch()
	require.NoError(t, sink.Write(context.Background(), batch))

	batch.RunID = "run-2"
	batch.Records = batch.Records[:1]
	batch.Records[0].Headline = "Senior QA Engineer"
	batch.Abort = models.AbortMaxProfilesReached
	require.NoError(t, sink.Write(context.Background(), batch))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var profiles int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&profiles))
	assert.Equal(t, 2, profiles)

	var headline, runID string
	require.NoError(t, db.QueryRow(
		`SELECT headline, run_id FROM profiles WHERE profile_url = ?`,
		"https://www.linkedin.com/in/janedoe",
	).Scan(&headline, &runID))
	assert.Equal(t, "Senior QA Engineer", headline)
	assert.Equal(t, "run-2", runID)

	var outcome string
	var records int
	require.NoError(t, db.QueryRow(`SELECT outcome, records FROM runs WHERE run_id = ?`, "run-2").Scan(&outcome, &records))
	assert.Equal(t, "MAX_PROFILES_REACHED", outcome)
	assert.Equal(t, 1, records)

	require.NoError(t, db.QueryRow(`SELECT outcome FROM runs WHERE run_id = ?`, "run-1").Scan(&outcome))
	assert.Equal(t, "COMPLETED", outcome)
}

type stubSink struct {
	name string
	err  error
	got  int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(_ context.Context, b Batch) error {
	s.got = len(b.Records)
	return s.err
}

func TestMultiDeliversToEverySink(t *testing.T) {
	failing := &stubSink{name: "broken", err: errors.New("disk full")}
	ok := &stubSink{name: "fine"}

	reports := Multi{failing, ok}.Deliver(context.Background(), sampleBatch())

	require.Len(t, reports, 2)
	assert.False(t, reports.OK())
	assert.Equal(t, 2, ok.got)
	assert.NoError(t, reports[1].Err)
	assert.ErrorContains(t, reports.Err(), "broken: disk full")

	assert.NoError(t, Multi{ok}.Write(context.Background(), sampleBatch()))
}
