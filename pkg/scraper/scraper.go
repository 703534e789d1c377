package scraper

import (
	"context"
	"fmt"
	"strings"

	"otwscraper/pkg/checkpoint"
	"otwscraper/pkg/config"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/export"
	"otwscraper/pkg/harvest"
	"otwscraper/pkg/linkedin"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
	"otwscraper/pkg/pacing"
	"otwscraper/pkg/storage"
	"otwscraper/pkg/ui"
)

// Exit codes of a search or export
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitAborted      = 2
	ExitExportFailed = 3
)

// Session is a browser the orchestrator can drive and the scraper closes
type Session interface {
	harvest.Browser
	Close() error
}

// Launcher opens a browser session
type Launcher func(ctx context.Context, cfg linkedin.Config) (Session, error)

// Spooler keeps a finished record set until every sink has it
type Spooler interface {
	Save(batch export.Batch, failed ...string) (string, error)
	Delete(runID string) error
}

// Deliverer hands a batch to its sinks
type Deliverer interface {
	Deliver(ctx context.Context, batch export.Batch) export.Reports
}

// CookieSource resolves the stored li_at cookie of an account
type CookieSource interface {
	SessionCookie(account string) string
}

// Outcome is everything a search produced
type Outcome struct {
	Result     *harvest.Result
	HarvestErr error
	Reports    export.Reports
	// SpoolPath is set when the record set is still spooled for a later
	// `otwscraper export`
	SpoolPath string
	ExitCode  int
}

// ExitCode maps a run's outcome to the process exit code. An export
// failure wins over everything else.
func ExitCode(abort models.AbortReason, harvestErr error, reports export.Reports) int {
	switch {
	case !reports.OK():
		return ExitExportFailed
	case harvestErr != nil:
		return ExitAborted
	case !abort.Successful():
		return ExitAborted
	default:
		return ExitOK
	}
}

// Scraper runs a search from browser launch to export
type Scraper struct {
	cfg      *config.Config
	launch   Launcher
	sinks    Deliverer
	spool    Spooler
	cookies  CookieSource
	observer harvest.Observer
	notifier *ui.Notifier
	policy   pacing.Policy
	logger   logger.Logger
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithLauncher replaces the Chrome launcher
func WithLauncher(l Launcher) Option { return func(s *Scraper) { s.launch = l } }

// WithSinks replaces the sinks built from the config
func WithSinks(d Deliverer) Option { return func(s *Scraper) { s.sinks = d } }

// WithSpooler replaces the checkpoint spool
func WithSpooler(sp Spooler) Option { return func(s *Scraper) { s.spool = sp } }

// WithCookies resolves the session cookie from a credential store
func WithCookies(c CookieSource) Option { return func(s *Scraper) { s.cookies = c } }

// WithObserver receives harvest progress
func WithObserver(o harvest.Observer) Option { return func(s *Scraper) { s.observer = o } }

// WithNotifier replaces the notifier built from the config
func WithNotifier(n *ui.Notifier) Option { return func(s *Scraper) { s.notifier = n } }

// WithPolicy replaces the pacing policy built from the config
func WithPolicy(p pacing.Policy) Option { return func(s *Scraper) { s.policy = p } }

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option { return func(s *Scraper) { s.logger = l } }

// New builds a Scraper from cfg. Sinks and the spool are created from the
// config unless given as options.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		cfg:      cfg,
		launch:   launchChrome,
		observer: harvest.NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	if s.notifier == nil {
		kind := cfg.Notifications.NotificationType
		if !cfg.Notifications.Enabled {
			kind = "none"
		}
		s.notifier = ui.NewNotifier(kind)
	}
	if s.policy == nil {
		s.policy = pacing.NewRandom(cfg.PacingPolicy(), nil)
	}
	if s.spool == nil {
		mgr, err := checkpoint.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
		}
		s.spool = mgr
	}
	if s.sinks == nil {
		sinks, err := BuildSinks(ctx, cfg, cfg.Output.Format, s.logger)
		if err != nil {
			return nil, err
		}
		s.sinks = sinks
	}
	return s, nil
}

func launchChrome(ctx context.Context, cfg linkedin.Config) (Session, error) {
	return linkedin.Launch(ctx, cfg)
}

// BuildSinks creates the sink for an output format
func BuildSinks(ctx context.Context, cfg *config.Config, format string, log logger.Logger) (export.Multi, error) {
	switch strings.ToLower(format) {
	case config.FormatCSV:
		store, err := storage.NewManager(cfg.Output.Directory)
		if err != nil {
			return nil, errs.New(errs.KindConfig, "create output directory", err)
		}
		return export.Multi{export.NewCSVSink(store, log)}, nil

	case config.FormatSheets:
		sink, err := export.NewSheetsSink(ctx, export.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SheetName:       cfg.Sheets.SheetName,
			CredentialsPath: cfg.Sheets.CredentialsPath,
			ClearExisting:   cfg.Sheets.ClearExisting,
			Logger:          log,
		})
		if err != nil {
			return nil, err
		}
		return export.Multi{sink}, nil

	case config.FormatSQLite:
		return export.Multi{export.NewSQLiteSink(cfg.SQLite.Path, log)}, nil

	default:
		return nil, errs.New(errs.KindConfig, "build sinks", fmt.Errorf("unknown output format %q", format))
	}
}

// browserConfig turns the app config into the browser's
func (s *Scraper) browserConfig() linkedin.Config {
	cookie := s.cfg.LinkedIn.SessionCookie
	if cookie == "" && s.cookies != nil {
		cookie = s.cookies.SessionCookie(s.cfg.LinkedIn.Account)
	}
	return linkedin.Config{
		Headless:            s.cfg.Browser.Headless,
		UserDataDir:         s.cfg.Browser.UserDataDir,
		BinPath:             s.cfg.Browser.BinPath,
		SessionCookie:       cookie,
		GeoURN:              s.cfg.LinkedIn.GeoURN,
		ApplyLocationFilter: s.cfg.LinkedIn.ApplyLocationFilter,
		PageLoadsPerHour:    s.cfg.Safety.PageLoadsPerHour,
		NavigationTimeout:   s.cfg.Safety.NavigationTimeout,
		NavigationRetries:   s.cfg.Safety.NavigationRetries,
		Pacing:              s.policy,
		Logger:              s.logger,
	}
}

// Run harvests q and exports whatever was collected. The returned error is
// only set when nothing could be harvested at all (invalid query, browser
// failed to start); everything else is described by the Outcome.
func (s *Scraper) Run(ctx context.Context, q models.SearchQuery) (*Outcome, error) {
	if err := q.Validate(); err != nil {
		return nil, errs.New(errs.KindConfig, "validate query", err)
	}

	bcfg := s.browserConfig()
	if bcfg.SessionCookie == "" && bcfg.UserDataDir == "" {
		s.logger.Warn("No session cookie or Chrome profile configured; LinkedIn will likely ask to log in")
	}

	browser, err := s.launch(ctx, bcfg)
	if err != nil {
		s.notify(false, "Browser failed", err.Error())
		return nil, err
	}

	orch := harvest.New(browser, s.policy,
		harvest.WithSessionCap(s.cfg.Safety.MaxProfilesPerSession),
		harvest.WithExhaustionThreshold(s.cfg.Safety.ExhaustionThreshold),
		harvest.WithStrictLocation(s.cfg.LinkedIn.StrictLocation),
		harvest.WithObserver(s.observer),
		harvest.WithLogger(s.logger),
	)
	res, harvestErr := orch.Run(ctx, q)

	if cerr := browser.Close(); cerr != nil {
		s.logger.WithError(cerr).Warn("Failed to close browser")
	}
	if res == nil {
		return nil, harvestErr
	}

	logger.LogAbort(res.Abort.String(), len(res.Records), res.Abort.Successful() && harvestErr == nil)
	if res.Abort == models.AbortRateLimitDetected && s.cfg.Notifications.OnRateLimit {
		s.notify(false, "Rate limit detected", "LinkedIn showed a CAPTCHA or throttling page; the run stopped early")
	}

	batch := export.Batch{
		RunID:      res.RunID,
		Query:      res.Query,
		Abort:      res.Abort,
		Records:    res.Records,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}

	// export always runs on what was collected, even after an interrupt
	out := s.deliver(context.WithoutCancel(ctx), batch)
	out.Result = res
	out.HarvestErr = harvestErr
	out.ExitCode = ExitCode(res.Abort, harvestErr, out.Reports)

	s.report(out)
	return out, nil
}

// Export re-delivers a spooled batch, e.g. after a failed export
func (s *Scraper) Export(ctx context.Context, batch export.Batch) *Outcome {
	out := s.deliver(ctx, batch)
	out.ExitCode = ExitOK
	if !out.Reports.OK() {
		out.ExitCode = ExitExportFailed
	}
	return out
}

// deliver spools the batch, hands it to the sinks and keeps the spool only
// when a sink failed.
func (s *Scraper) deliver(ctx context.Context, batch export.Batch) *Outcome {
	out := &Outcome{}
	log := s.logger.WithField("run_id", batch.RunID)

	spoolPath, err := s.spool.Save(batch)
	if err != nil {
		log.WithError(err).Warn("Failed to spool records before export")
	}

	out.Reports = s.sinks.Deliver(ctx, batch)

	for _, rep := range out.Reports {
		logger.LogExport(rep.Sink, rep.Location, len(batch.Records), rep.Err)
	}

	if out.Reports.OK() {
		if err := s.spool.Delete(batch.RunID); err != nil {
			log.WithError(err).Warn("Failed to delete spooled records")
		}
		return out
	}

	var failed []string
	for _, rep := range out.Reports {
		if rep.Err != nil {
			failed = append(failed, rep.Sink)
		}
	}
	if path, err := s.spool.Save(batch, failed...); err != nil {
		log.WithError(err).Error("Failed to keep records after export failure")
	} else {
		spoolPath = path
	}
	out.SpoolPath = spoolPath
	return out
}

func (s *Scraper) report(out *Outcome) {
	res := out.Result
	summary := fmt.Sprintf("%d profiles, %s", len(res.Records), res.Abort.String())

	switch {
	case !out.Reports.OK():
		s.notify(false, "Export failed", out.Reports.Err().Error())
	case out.HarvestErr != nil:
		s.notify(false, "Harvest failed", summary+": "+out.HarvestErr.Error())
	case res.Abort.Successful():
		s.notify(true, "Harvest complete", summary)
	default:
		s.notify(false, "Harvest stopped", summary+" ("+res.Abort.Description()+")")
	}
}

func (s *Scraper) notify(success bool, title, message string) {
	n := s.cfg.Notifications
	switch {
	case success && n.OnComplete:
		s.notifier.SendSuccess(title, message)
	case !success && n.OnError:
		s.notifier.SendError(title, message)
	}
}

// IsUsageError reports errors caused by the operator's input rather than
// by the run
func IsUsageError(err error) bool {
	return errs.Is(err, errs.KindConfig)
}
