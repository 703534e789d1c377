package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"otwscraper/pkg/logger"
	"otwscraper/pkg/models"
)

// FieldSource reads one field of a rendered card. ok is false when the
// field is absent; err is set when the read itself failed.
type FieldSource interface {
	ExtractField(ctx context.Context, card models.CardHandle, field models.Field) (value string, ok bool, err error)
}

// Result is the outcome of parsing one card: either a record or a skip reason
type Result struct {
	Record *models.ProfileRecord
	Reason models.SkipReason
	Detail string
}

// OK reports whether the card produced a record
func (r Result) OK() bool {
	return r.Record != nil
}

// Recognized reports whether the card had the structure of a profile card,
// regardless of whether it was kept.
func (r Result) Recognized() bool {
	return r.OK() || r.Reason == models.SkipNotOpenToWork
}

func success(rec *models.ProfileRecord) Result {
	return Result{Record: rec}
}

func skipped(reason models.SkipReason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}

// Parser turns card handles into profile records
type Parser struct {
	source    FieldSource
	now       func() time.Time
	sanitizer *bluemonday.Policy
	logger    logger.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithClock overrides the time source used for ScrapedAt
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a parser reading fields from source
func New(source FieldSource, opts ...Option) *Parser {
	p := &Parser{
		source:    source,
		now:       time.Now,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a record from one card. It never panics; every outcome,
// including a failure inside the field source, is reported as a Result.
func (p *Parser) Parse(ctx context.Context, card models.CardHandle, includeAllProfiles bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = skipped(models.SkipMalformed, fmt.Sprintf("panic while parsing card: %v", r))
		}
	}()

	if card == nil {
		return skipped(models.SkipMalformed, "nil card")
	}

	rawURL, ok, err := p.source.ExtractField(ctx, card, models.FieldProfileURL)
	if err != nil {
		return skipped(models.SkipMalformed, "reading profile url: "+err.Error())
	}
	rawURL = strings.TrimSpace(rawURL)
	if !ok || rawURL == "" {
		return skipped(models.SkipMissingURL, "card has no profile link")
	}
	profileURL, err := NormalizeProfileURL(rawURL)
	if err != nil {
		return skipped(models.SkipMalformed, err.Error())
	}

	name, ok, err := p.source.ExtractField(ctx, card, models.FieldName)
	if err != nil {
		return skipped(models.SkipMalformed, "reading name: "+err.Error())
	}
	name = p.clean(name)
	if !ok || name == "" {
		return skipped(models.SkipMalformed, "card has no name")
	}
	first, last := ParseName(name)
	if first == "" {
		return skipped(models.SkipMalformed, "unusable name "+fmt.Sprintf("%q", name))
	}

	openToWork := p.detectBadge(ctx, card)
	if !includeAllProfiles && !openToWork {
		return skipped(models.SkipNotOpenToWork, profileURL)
	}

	headline := p.optional(ctx, card, models.FieldHeadline)
	company := p.optional(ctx, card, models.FieldCompany)
	if company == "" {
		company = ExtractCompany(headline)
	}

	return success(&models.ProfileRecord{
		FirstName:      first,
		LastName:       last,
		Headline:       headline,
		CurrentCompany: company,
		Location:       p.optional(ctx, card, models.FieldLocation),
		ProfileURL:     profileURL,
		OpenToWork:     openToWork,
		ScrapedAt:      p.now(),
	})
}

// optional reads a field whose absence is not an error
func (p *Parser) optional(ctx context.Context, card models.CardHandle, field models.Field) string {
	value, ok, err := p.source.ExtractField(ctx, card, field)
	if err != nil {
		p.logger.DebugWithFields("Optional field unreadable", map[string]interface{}{
			"card":  card.ID(),
			"field": string(field),
			"error": err.Error(),
		})
		return ""
	}
	if !ok {
		return ""
	}
	return p.clean(value)
}

func (p *Parser) detectBadge(ctx context.Context, card models.CardHandle) bool {
	badge, ok, err := p.source.ExtractField(ctx, card, models.FieldBadge)
	if err == nil && ok && strings.TrimSpace(badge) != "" {
		return true
	}
	markup, ok, err := p.source.ExtractField(ctx, card, models.FieldMarkup)
	if err != nil || !ok {
		return false
	}
	return HasOpenToWorkSignal(markup)
}

// clean strips markup and collapses whitespace
func (p *Parser) clean(s string) string {
	return CleanText(p.sanitizer, s)
}
