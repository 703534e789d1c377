package linkedin

import (
	"net/url"
	"strings"

	"otwscraper/pkg/models"
)

const (
	BaseURL   = "https://www.linkedin.com"
	SearchURL = BaseURL + "/search/results/people/"
	FeedURL   = BaseURL + "/feed/"
	LoginURL  = BaseURL + "/login"
)

// BuildSearchURL returns the people-search URL for q. With a geo URN the
// location becomes a structured filter; otherwise it is appended to the
// keywords the way the search bar does it.
func BuildSearchURL(q models.SearchQuery, geoURN string) string {
	v := url.Values{}
	if geoURN = strings.TrimSpace(geoURN); geoURN != "" {
		v.Set("keywords", strings.TrimSpace(q.JobTitle))
		v.Set("geoUrn", `["`+geoURN+`"]`)
	} else {
		v.Set("keywords", q.Keywords())
	}
	v.Set("origin", "GLOBAL_SEARCH_HEADER")
	return SearchURL + "?" + v.Encode()
}

// isChallengeURL reports a CAPTCHA or security checkpoint page
func isChallengeURL(raw string) bool {
	u := strings.ToLower(raw)
	return strings.Contains(u, "/checkpoint/challenge") ||
		strings.Contains(u, "/checkpoint/rp/") ||
		strings.Contains(u, "captcha")
}

// isLoginURL reports a page that asks for credentials
func isLoginURL(raw string) bool {
	u := strings.ToLower(raw)
	for _, marker := range []string{"/login", "/uas/login", "/checkpoint/lg/", "/authwall", "/signup"} {
		if strings.Contains(u, marker) {
			return true
		}
	}
	return false
}

var throttlePhrases = []string{
	"you've reached the weekly search limit",
	"you’ve reached the commercial use limit",
	"you've reached the commercial use limit",
	"commercial use limit on search",
	"too many requests",
	"let's do a quick security check",
	"let’s do a quick security check",
	"we've restricted your account",
	"your account has been temporarily restricted",
}

// hasThrottleText reports LinkedIn's throttling and restriction notices
func hasThrottleText(text string) bool {
	t := strings.ToLower(text)
	for _, p := range throttlePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
