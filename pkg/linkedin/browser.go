package linkedin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/harvest"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
	"otwscraper/pkg/pacing"
	"otwscraper/pkg/ratelimit"
	"otwscraper/pkg/retry"
)

var _ harvest.Browser = (*Browser)(nil)

// Config configures the browser session
type Config struct {
	Headless bool
	// UserDataDir is a persistent Chrome profile that keeps the login
	UserDataDir string
	// BinPath overrides the Chrome binary
	BinPath string
	// SessionCookie is the li_at cookie value, injected when set
	SessionCookie string
	// GeoURN switches the search to a structured location filter
	GeoURN string
	// ApplyLocationFilter drives the Locations filter through the UI after
	// the search loads
	ApplyLocationFilter bool
	// PageLoadsPerHour caps navigations and page advances
	PageLoadsPerHour  int
	NavigationTimeout time.Duration
	NavigationRetries int
	// Pacing spaces the clicks of the location filter flow
	Pacing pacing.Policy
	Logger logger.Logger
}

func (c *Config) defaults() {
	if c.PageLoadsPerHour <= 0 {
		c.PageLoadsPerHour = 100
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 45 * time.Second
	}
	if c.NavigationRetries <= 0 {
		c.NavigationRetries = 3
	}
	if c.Pacing == nil {
		c.Pacing = pacing.NewRandom(pacing.DefaultConfig(), nil)
	}
	if c.Logger == nil {
		c.Logger = logger.GetLogger()
	}
}

// Browser is a logged-in LinkedIn session in a stealth Chrome tab. It is
// not safe for concurrent use.
type Browser struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	loads    *ratelimit.SlidingWindow
	retrier  *retry.Retrier
	log      logger.Logger
	pageNo   int
}

// Launch starts Chrome and opens a stealth tab
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	cfg.defaults()
	log := cfg.Logger.WithField("component", "browser")

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Delete("enable-automation")
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errs.New(errs.KindBrowser, "launch chrome", err)
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, errs.New(errs.KindBrowser, "connect to chrome", err)
	}

	b := &Browser{
		cfg:      cfg,
		launcher: l,
		browser:  rb,
		loads:    ratelimit.NewSlidingWindow(cfg.PageLoadsPerHour, time.Hour),
		log:      log,
	}
	b.retrier = retry.NewRetrier(&retry.Config{
		MaxAttempts: cfg.NavigationRetries,
		BackoffFor:  retry.NewErrorTypeBackoff().ForError,
		RetryIf: func(err error) bool {
			return errs.Is(err, errs.KindNavigation)
		},
		Logger: log,
	})

	if cfg.SessionCookie != "" {
		if err := b.setSessionCookie(cfg.SessionCookie); err != nil {
			b.Close()
			return nil, err
		}
	}

	page, err := stealth.Page(rb)
	if err != nil {
		b.Close()
		return nil, errs.New(errs.KindBrowser, "open stealth page", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.WithError(err).Warn("Could not set viewport")
	}
	b.page = page

	log.InfoWithFields("Browser started", map[string]interface{}{
		"headless":       cfg.Headless,
		"user_data_dir":  cfg.UserDataDir,
		"session_cookie": cfg.SessionCookie != "",
	})
	return b, nil
}

func (b *Browser) setSessionCookie(value string) error {
	err := b.browser.SetCookies([]*proto.NetworkCookieParam{{
		Name:     "li_at",
		Value:    value,
		Domain:   ".linkedin.com",
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
	}})
	if err != nil {
		return errs.New(errs.KindAuth, "set session cookie", err)
	}
	return nil
}

// Close shuts the browser down. A persistent profile directory is left in
// place; a temporary one is removed.
func (b *Browser) Close() error {
	var closeErr error
	if b.page != nil {
		_ = b.page.Close()
		b.page = nil
	}
	if b.browser != nil {
		closeErr = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		// Cleanup deletes the user data dir
		if b.cfg.UserDataDir == "" {
			b.launcher.Cleanup()
		} else {
			b.launcher.Kill()
		}
		b.launcher = nil
	}
	b.log.Debug("Browser closed")
	return closeErr
}

// cardWaitTimeout bounds the wait for the first result card of a page
const cardWaitTimeout = 10 * time.Second

// navigate loads u within the page-load budget, retrying transient failures
func (b *Browser) navigate(ctx context.Context, u string) error {
	if err := b.loads.Wait(ctx); err != nil {
		return err
	}
	return b.retrier.WithOp("navigate").Do(ctx, func(ctx context.Context) error {
		navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
		defer cancel()

		p := b.page.Context(navCtx)
		if err := p.Navigate(u); err != nil {
			return errs.New(errs.KindNavigation, "navigate "+u, err)
		}
		if err := p.WaitLoad(); err != nil {
			return errs.New(errs.KindNavigation, "wait for "+u, err)
		}
		return nil
	})
}

// CheckLogin opens the feed and reports whether the session is logged in
func (b *Browser) CheckLogin(ctx context.Context) (bool, error) {
	if err := b.navigate(ctx, FeedURL); err != nil {
		return false, err
	}
	wall, err := b.IsLoginWall(ctx)
	if err != nil {
		return false, err
	}
	return !wall, nil
}

// NavigateToSearch opens the people search for q
func (b *Browser) NavigateToSearch(ctx context.Context, q models.SearchQuery) error {
	u := BuildSearchURL(q, b.cfg.GeoURN)
	b.log.InfoWithFields("Opening search", map[string]interface{}{
		"job_title": q.JobTitle,
		"location":  q.Location,
		"url":       u,
	})
	if err := b.navigate(ctx, u); err != nil {
		return err
	}
	b.pageNo = 1

	if b.cfg.ApplyLocationFilter && b.cfg.GeoURN == "" && strings.TrimSpace(q.Location) != "" {
		applied, err := b.applyLocationFilter(ctx, q.Location)
		if err != nil {
			return err
		}
		if !applied {
			b.log.WarnWithFields("Location filter could not be applied; results rely on keywords", map[string]interface{}{
				"location": q.Location,
			})
		}
	}
	return nil
}

// ScrollResults scrolls to the bottom of the listing so lazily rendered
// cards are attached
func (b *Browser) ScrollResults(ctx context.Context) error {
	if _, err := b.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return errs.New(errs.KindBrowser, "scroll results", err)
	}
	return nil
}

// waitForCards blocks until any card selector matches or cardWaitTimeout
// passes. A page that never renders a card is not an error here.
func (b *Browser) waitForCards(ctx context.Context) error {
	tp := b.page.Context(ctx).Timeout(cardWaitTimeout)
	defer tp.CancelTimeout()

	race := tp.Race()
	for _, sel := range cardSelectors {
		race = race.Element(sel)
	}
	if _, err := race.Do(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.DebugWithFields("No result cards rendered", map[string]interface{}{"page": b.pageNo})
	}
	return nil
}

// CurrentCards returns the result cards rendered on the current page
func (b *Browser) CurrentCards(ctx context.Context) ([]models.CardHandle, error) {
	if err := b.waitForCards(ctx); err != nil {
		return nil, err
	}

	p := b.page.Context(ctx)
	for _, sel := range cardSelectors {
		els, err := p.Elements(sel)
		if err != nil {
			return nil, errs.New(errs.KindBrowser, "query result cards", err)
		}
		if len(els) == 0 {
			continue
		}
		cards := make([]models.CardHandle, 0, len(els))
		for i, el := range els {
			cards = append(cards, &card{id: b.cardID(el, i), el: el})
		}
		return cards, nil
	}
	return nil, nil
}

// AdvancePage clicks through to the next result page. It returns
// harvest.ErrNoMorePages when no enabled control leads further.
func (b *Browser) AdvancePage(ctx context.Context) error {
	p := b.page.Context(ctx)
	if _, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return errs.New(errs.KindBrowser, "scroll to pagination", err)
	}

	btn, err := b.nextControl(ctx)
	if err != nil {
		return err
	}
	if btn == nil {
		return harvest.ErrNoMorePages
	}

	if err := b.loads.Wait(ctx); err != nil {
		return err
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return errs.New(errs.KindBrowser, "click next page", err)
	}
	if err := p.WaitLoad(); err != nil {
		return errs.New(errs.KindNavigation, "wait for next page", err)
	}
	b.pageNo++
	b.log.DebugWithFields("Advanced to next page", map[string]interface{}{"page": b.pageNo})
	return nil
}

func (b *Browser) nextControl(ctx context.Context) (*rod.Element, error) {
	p := b.page.Context(ctx)
	for _, sel := range nextSelectors {
		has, el, err := p.Has(sel)
		if err != nil {
			return nil, errs.New(errs.KindBrowser, "find next control", err)
		}
		if !has || !usable(el) {
			continue
		}
		return el, nil
	}

	// Numbered pagination without a Next button: click the page after the current one
	has, current, err := p.Has(currentPageSelector)
	if err != nil {
		return nil, errs.New(errs.KindBrowser, "find current page", err)
	}
	if !has {
		return nil, nil
	}
	text, err := current.Text()
	if err != nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, nil
	}
	want := strconv.Itoa(n + 1)

	buttons, err := p.Elements(pageButtonSelector)
	if err != nil {
		return nil, errs.New(errs.KindBrowser, "list page buttons", err)
	}
	for _, btn := range buttons {
		if t, err := btn.Text(); err == nil && strings.TrimSpace(t) == want && usable(btn) {
			return btn, nil
		}
	}
	return nil, nil
}

// usable is true for a visible control without a disabled attribute
func usable(el *rod.Element) bool {
	if disabled, err := el.Attribute("disabled"); err != nil || disabled != nil {
		return false
	}
	visible, err := el.Visible()
	return err == nil && visible
}

func (b *Browser) cardID(el *rod.Element, idx int) string {
	if urn, err := el.Attribute("data-chameleon-result-urn"); err == nil && urn != nil && *urn != "" {
		return *urn
	}
	if has, inner, err := el.Has("[data-chameleon-result-urn]"); err == nil && has {
		if urn, err := inner.Attribute("data-chameleon-result-urn"); err == nil && urn != nil && *urn != "" {
			return *urn
		}
	}
	if href, ok, err := firstProfileHref(el); err == nil && ok {
		return href
	}
	return fmt.Sprintf("page%d-card%d", b.pageNo, idx)
}

type card struct {
	id string
	el *rod.Element
}

func (c *card) ID() string { return c.id }

// ExtractField reads one field from a card. A field that is not rendered
// yields ok=false with a nil error.
func (b *Browser) ExtractField(ctx context.Context, handle models.CardHandle, field models.Field) (string, bool, error) {
	c, ok := handle.(*card)
	if !ok || c.el == nil {
		return "", false, fmt.Errorf("unexpected card handle %T", handle)
	}
	el := c.el.Context(ctx)

	switch field {
	case models.FieldName:
		return firstText(el, nameSelectors)
	case models.FieldHeadline:
		return firstText(el, headlineSelectors)
	case models.FieldLocation:
		return firstText(el, locationSelectors)
	case models.FieldProfileURL:
		return firstProfileHref(el)
	case models.FieldBadge:
		for _, sel := range badgeSelectors {
			has, _, err := el.Has(sel)
			if err != nil {
				return "", false, err
			}
			if has {
				return sel, true, nil
			}
		}
		return "", false, nil
	case models.FieldMarkup:
		html, err := el.HTML()
		if err != nil {
			return "", false, err
		}
		return html, html != "", nil
	default:
		// Search cards carry no dedicated company element
		return "", false, nil
	}
}

func firstText(el *rod.Element, selectors []string) (string, bool, error) {
	for _, sel := range selectors {
		has, found, err := el.Has(sel)
		if err != nil {
			return "", false, err
		}
		if !has {
			continue
		}
		text, err := found.Text()
		if err != nil {
			return "", false, err
		}
		if strings.TrimSpace(text) != "" {
			return text, true, nil
		}
	}
	return "", false, nil
}

func firstProfileHref(el *rod.Element) (string, bool, error) {
	for _, sel := range linkSelectors {
		links, err := el.Elements(sel)
		if err != nil {
			return "", false, err
		}
		for _, a := range links {
			href, err := a.Attribute("href")
			if err != nil {
				return "", false, err
			}
			if href != nil && strings.Contains(*href, "/in/") {
				return *href, true, nil
			}
		}
	}
	return "", false, nil
}
