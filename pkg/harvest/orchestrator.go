package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
	"otwscraper/pkg/pacing"
	"otwscraper/pkg/parser"
)

// Browser is everything a run needs from the logged-in browser session
type Browser interface {
	NavigateToSearch(ctx context.Context, query models.SearchQuery) error
	Pager
	PageSignals
	parser.FieldSource
}

// Observer receives progress events as the run unfolds. Calls happen on
// the harvesting goroutine and must return quickly.
type Observer interface {
	PageLoaded(page, newCards int)
	RecordAccepted(rec models.ProfileRecord, total int)
	CardSkipped(reason models.SkipReason, detail string)
	Pausing(d time.Duration, long bool)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) PageLoaded(int, int)                      {}
func (NopObserver) RecordAccepted(models.ProfileRecord, int) {}
func (NopObserver) CardSkipped(models.SkipReason, string)    {}
func (NopObserver) Pausing(time.Duration, bool)              {}

// Options tune a run
type Options struct {
	SessionCap          int
	ExhaustionThreshold int
	StrictLocation      bool
	Observer            Observer
	Logger              logger.Logger
	Clock               func() time.Time
}

// Option configures the orchestrator
type Option func(*Options)

// WithSessionCap sets the hard ceiling on actions per run
func WithSessionCap(n int) Option {
	return func(o *Options) { o.SessionCap = n }
}

// WithExhaustionThreshold sets how many empty advances end the listing
func WithExhaustionThreshold(n int) Option {
	return func(o *Options) { o.ExhaustionThreshold = n }
}

// WithStrictLocation drops records whose location does not match the query
func WithStrictLocation(strict bool) Option {
	return func(o *Options) { o.StrictLocation = strict }
}

// WithObserver registers a progress observer
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithClock overrides time.Now for records and run timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Clock = now }
}

// Stats counts what happened during a run
type Stats struct {
	Actions       int                       `json:"actions"`
	Advances      int                       `json:"advances"`
	CardsSurfaced int                       `json:"cards_surfaced"`
	CardsParsed   int                       `json:"cards_parsed"`
	Duplicates    int                       `json:"duplicates"`
	Skipped       map[models.SkipReason]int `json:"skipped"`
}

// SkippedTotal sums every skip reason
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Result is the outcome of a run. Records is in collection order and
// always valid, even when Abort is set or Run returned an error.
type Result struct {
	RunID      string                 `json:"run_id"`
	Query      models.SearchQuery     `json:"query"`
	Records    []models.ProfileRecord `json:"records"`
	Abort      models.AbortReason     `json:"abort_reason,omitempty"`
	Stats      Stats                  `json:"stats"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Duration is the wall time of the run
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Orchestrator drives one harvest: navigate, advance, parse, dedup,
// collect, while the guard and pacing policy gate every action.
type Orchestrator struct {
	browser Browser
	policy  pacing.Policy
	opts    Options
}

// New creates an orchestrator over an authenticated browser
func New(browser Browser, policy pacing.Policy, opts ...Option) *Orchestrator {
	o := Options{
		ExhaustionThreshold: DefaultExhaustionThreshold,
		Observer:            NopObserver{},
		Clock:               time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger()
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return &Orchestrator{browser: browser, policy: policy, opts: o}
}

type run struct {
	*Orchestrator
	query  models.SearchQuery
	state  *SessionState
	guard  *SessionGuard
	driver *PaginationDriver
	dedup  *DedupTracker
	parser *parser.Parser
	stats  Stats
	log    logger.Logger
}

// Run harvests profiles for query. The returned Result is non-nil whenever
// the query is valid; a non-nil error reports a browser or navigation
// failure that ended the run early, with the records collected so far.
// Cancelling ctx ends the run with AbortInterrupted and no error.
func (o *Orchestrator) Run(ctx context.Context, query models.SearchQuery) (*Result, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}

	state := newSessionState()
	r := &run{
		Orchestrator: o,
		query:        query,
		state:        state,
		guard:        NewSessionGuard(query.MaxProfiles, o.opts.SessionCap, o.browser),
		driver:       NewPaginationDriver(o.browser, o.policy, state, o.opts.ExhaustionThreshold),
		dedup:        NewDedupTracker(state),
		parser:       parser.New(o.browser, parser.WithClock(o.opts.Clock), parser.WithLogger(o.opts.Logger)),
		stats:        Stats{Skipped: make(map[models.SkipReason]int)},
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Query:     query,
		StartedAt: o.opts.Clock(),
	}
	r.log = o.opts.Logger.WithField("run_id", result.RunID)
	r.log.InfoWithFields("Harvest started", map[string]interface{}{
		"job_title":    query.JobTitle,
		"location":     query.Location,
		"max_profiles": query.MaxProfiles,
		"include_all":  query.IncludeAllProfiles,
		"session_cap":  o.opts.SessionCap,
	})

	err := r.loop(ctx)

	result.Records = state.Finalize()
	result.Abort = state.Aborted()
	r.stats.Actions = state.ActionCount()
	r.stats.Advances = r.driver.Advances()
	result.Stats = r.stats
	result.FinishedAt = o.opts.Clock()

	fields := map[string]interface{}{
		"records":  len(result.Records),
		"outcome":  result.Abort.String(),
		"actions":  result.Stats.Actions,
		"pages":    result.Stats.Advances,
		"skipped":  result.Stats.SkippedTotal(),
		"duration": result.Duration().String(),
	}
	switch {
	case err != nil:
		r.log.WithError(err).ErrorWithFields("Harvest failed", fields)
	case result.Abort.Successful():
		r.log.InfoWithFields("Harvest finished", fields)
	default:
		r.log.WarnWithFields("Harvest aborted", fields)
	}

	return result, err
}

func (r *run) loop(ctx context.Context) error {
	if err := r.browser.NavigateToSearch(ctx, r.query); err != nil {
		if r.interrupted(ctx) {
			return nil
		}
		return fmt.Errorf("failed to open search results: %w", err)
	}

	for {
		ok, err := r.beforeAction(ctx)
		if err != nil || !ok {
			return err
		}

		cards, err := r.driver.Advance(ctx)
		if err != nil {
			if r.interrupted(ctx) {
				return nil
			}
			return err
		}
		if r.driver.State() == PageExhausted {
			r.concludeExhausted()
			return nil
		}

		r.state.observeCards(len(cards))
		r.stats.CardsSurfaced += len(cards)
		r.opts.Observer.PageLoaded(r.driver.Advances(), len(cards))
		r.log.DebugWithFields("Page advanced", map[string]interface{}{
			"page":      r.driver.Advances(),
			"new_cards": len(cards),
			"empty_run": r.state.ConsecutiveEmptyPages(),
		})

		for _, card := range cards {
			ok, err := r.beforeAction(ctx)
			if err != nil || !ok {
				return err
			}
			r.processCard(ctx, card)
		}
	}
}

// beforeAction consults the guard, then paces. It returns false when the
// run must stop.
func (r *run) beforeAction(ctx context.Context) (bool, error) {
	reason, err := r.guard.CheckBeforeAction(ctx, r.state)
	if err != nil {
		if r.interrupted(ctx) {
			return false, nil
		}
		return false, err
	}
	if reason != models.AbortNone {
		r.state.abort(reason)
		r.log.InfoWithFields("Stopping harvest", map[string]interface{}{
			"reason":  string(reason),
			"records": r.state.RecordCount(),
			"actions": r.state.ActionCount(),
		})
		return false, nil
	}

	if n := r.state.ActionCount(); n > 0 {
		long := r.policy.ShouldLongPause(n)
		d := pacing.For(r.policy, n)
		r.opts.Observer.Pausing(d, long)
		if long {
			r.log.InfoWithFields("Taking a long pause", map[string]interface{}{
				"actions":  n,
				"duration": d.String(),
			})
		}
		if err := pacing.Wait(ctx, d); err != nil {
			r.state.abort(models.AbortInterrupted)
			return false, nil
		}
	}

	r.state.countAction()
	return true, nil
}

func (r *run) processCard(ctx context.Context, card models.CardHandle) {
	res := r.parser.Parse(ctx, card, r.query.IncludeAllProfiles)
	if res.Recognized() {
		r.state.observeRecognized()
	}
	if !res.OK() {
		r.skip(card, res.Reason, res.Detail)
		return
	}
	r.stats.CardsParsed++

	rec := *res.Record
	if r.opts.StrictLocation && !parser.LocationMatches(r.query.Location, rec.Location) {
		r.skip(card, models.SkipLocationMismatch, rec.Location)
		return
	}

	if !r.dedup.IsNew(rec.ProfileURL) {
		r.stats.Duplicates++
		r.log.DebugWithFields("Duplicate profile", map[string]interface{}{
			"profile_url": rec.ProfileURL,
		})
		return
	}
	if r.state.appendRecord(rec) {
		r.dedup.MarkSeen(rec.ProfileURL)
		r.opts.Observer.RecordAccepted(rec, r.state.RecordCount())
	}
}

func (r *run) skip(card models.CardHandle, reason models.SkipReason, detail string) {
	r.stats.Skipped[reason]++
	r.opts.Observer.CardSkipped(reason, detail)
	r.log.DebugWithFields("Card skipped", map[string]interface{}{
		"card":   card.ID(),
		"reason": string(reason),
		"detail": detail,
	})
}

// concludeExhausted tells an empty listing and an unreadable one apart
// from a clean end of results.
func (r *run) concludeExhausted() {
	switch {
	case r.state.cardsSurfaced == 0:
		r.state.abort(models.AbortNoResults)
	case r.state.cardsRecognized == 0:
		r.state.abort(models.AbortPageStructureChanged)
	}
}

func (r *run) interrupted(ctx context.Context) bool {
	if err := ctx.Err(); err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		r.state.abort(models.AbortInterrupted)
		return true
	}
	return false
}
