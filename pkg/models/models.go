package models

import (
	"errors"
	"strings"
	"time"
)

// SearchQuery is the input of one harvest run. It is passed by value and
// never modified once the run has started.
type SearchQuery struct {
	JobTitle           string `json:"job_title" yaml:"job_title"`
	Location           string `json:"location" yaml:"location"`
	IncludeAllProfiles bool   `json:"include_all_profiles" yaml:"include_all_profiles"`
	MaxProfiles        int    `json:"max_profiles" yaml:"max_profiles"`
}

// Validate reports every problem with the query at once
func (q SearchQuery) Validate() error {
	var errs []error
	if strings.TrimSpace(q.JobTitle) == "" {
		errs = append(errs, errors.New("job title is required"))
	}
	if q.MaxProfiles < 1 {
		errs = append(errs, errors.New("max profiles must be at least 1"))
	}
	return errors.Join(errs...)
}

// Keywords is the free-text search string sent to the people search
func (q SearchQuery) Keywords() string {
	return strings.TrimSpace(strings.TrimSpace(q.JobTitle) + " " + strings.TrimSpace(q.Location))
}

// ProfileRecord is one harvested profile. ProfileURL is the identity key and
// is never empty; CurrentCompany is empty when it could not be determined.
type ProfileRecord struct {
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Headline       string    `json:"headline"`
	CurrentCompany string    `json:"current_company,omitempty"`
	Location       string    `json:"location"`
	ProfileURL     string    `json:"profile_url"`
	OpenToWork     bool      `json:"open_to_work"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// FullName joins first and last name
func (r ProfileRecord) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// AbortReason explains why a run stopped before the results were exhausted.
type AbortReason string

const (
	AbortNone                 AbortReason = ""
	AbortMaxProfilesReached   AbortReason = "MAX_PROFILES_REACHED"
	AbortSessionCapReached    AbortReason = "SESSION_CAP_REACHED"
	AbortRateLimitDetected    AbortReason = "RATE_LIMIT_DETECTED"
	AbortLoginRequired        AbortReason = "LOGIN_REQUIRED"
	AbortNoResults            AbortReason = "NO_RESULTS"
	AbortPageStructureChanged AbortReason = "PAGE_STRUCTURE_CHANGED"
	AbortInterrupted          AbortReason = "INTERRUPTED"
)

// Successful is true for a clean end of results or for reaching the
// requested number of profiles.
func (a AbortReason) Successful() bool {
	return a == AbortNone || a == AbortMaxProfilesReached
}

func (a AbortReason) String() string {
	if a == AbortNone {
		return "COMPLETED"
	}
	return string(a)
}

// Description is the operator-facing explanation
func (a AbortReason) Description() string {
	switch a {
	case AbortNone:
		return "search results exhausted"
	case AbortMaxProfilesReached:
		return "requested number of profiles collected"
	case AbortSessionCapReached:
		return "per-session action ceiling reached"
	case AbortRateLimitDetected:
		return "rate limit or CAPTCHA page detected"
	case AbortLoginRequired:
		return "session is not logged in"
	case AbortNoResults:
		return "search returned no results"
	case AbortPageStructureChanged:
		return "result cards were shown but none could be read; the page layout may have changed"
	case AbortInterrupted:
		return "interrupted by operator"
	default:
		return string(a)
	}
}

// SkipReason explains why a card produced no record
type SkipReason string

const (
	SkipNotOpenToWork    SkipReason = "NOT_OPEN_TO_WORK"
	SkipMissingURL       SkipReason = "MISSING_URL"
	SkipMalformed        SkipReason = "MALFORMED"
	SkipLocationMismatch SkipReason = "LOCATION_MISMATCH"
)

// Field names a piece of data the browser can read from a card
type Field string

const (
	FieldName       Field = "name"
	FieldHeadline   Field = "headline"
	FieldLocation   Field = "location"
	FieldProfileURL Field = "profile_url"
	FieldCompany    Field = "current_company"
	// FieldBadge is non-empty when an explicit open-to-work badge element exists
	FieldBadge Field = "open_to_work_badge"
	// FieldMarkup is the card's outer HTML
	FieldMarkup Field = "markup"
)

// CardHandle is an opaque reference to one rendered result card. ID is
// stable for the lifetime of the card on the page.
type CardHandle interface {
	ID() string
}
