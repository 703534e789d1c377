package parser

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const profileHost = "www.linkedin.com"

var (
	// ErrNotProfileURL is returned for links that do not point to a member profile
	ErrNotProfileURL = errors.New("not a profile url")

	parenthesised = regexp.MustCompile(`\([^)]*\)`)

	companySeparator = `(?:\s*[,·•]\s|\s+[|\-–—]\s+|$)`
	companyPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:at|chez|bei)\s+(.+?)` + companySeparator),
		regexp.MustCompile(`@\s*(.+?)` + companySeparator),
		regexp.MustCompile(`\s[|\-–—]\s+(.+?)` + companySeparator),
	}
)

// CleanText removes any markup, decodes entities and collapses whitespace
func CleanText(policy *bluemonday.Policy, s string) string {
	if policy != nil {
		s = policy.Sanitize(s)
	}
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// NormalizeProfileURL returns the canonical https://www.linkedin.com/in/<id>
// form of a profile link. Relative links are resolved against the site root;
// query strings, fragments and trailing slashes are dropped.
func NormalizeProfileURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse profile url %q: %w", raw, err)
	}
	if u.Host == "" {
		if !strings.HasPrefix(u.Path, "/") {
			return "", fmt.Errorf("%w: %q", ErrNotProfileURL, raw)
		}
	} else {
		host := strings.ToLower(u.Hostname())
		if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
			return "", fmt.Errorf("%w: %q", ErrNotProfileURL, raw)
		}
	}

	path := strings.TrimRight(u.Path, "/")
	if !strings.HasPrefix(path, "/in/") {
		return "", fmt.Errorf("%w: %q", ErrNotProfileURL, raw)
	}
	slug := strings.TrimPrefix(path, "/in/")
	if slug == "" || strings.Contains(slug, "/") {
		// "/in/<id>/overlay/..." and friends
		slug = strings.SplitN(slug, "/", 2)[0]
	}
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrNotProfileURL, raw)
	}

	return (&url.URL{Scheme: "https", Host: profileHost, Path: "/in/" + slug}).String(), nil
}

// ParseName splits a display name into first and last name. Parenthesised
// parts and anything after the first comma (credentials) are dropped.
func ParseName(full string) (first, last string) {
	name := parenthesised.ReplaceAllString(full, " ")
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// ExtractCompany infers the current company from a headline such as
// "Engineer at Acme | Ex-Initech". It returns "" when nothing matches.
func ExtractCompany(headline string) string {
	headline = strings.TrimSpace(headline)
	if headline == "" {
		return ""
	}
	for _, re := range companyPatterns {
		m := re.FindStringSubmatch(headline)
		if len(m) < 2 {
			continue
		}
		company := strings.Trim(strings.TrimSpace(m[1]), ".,;:")
		if company != "" {
			return company
		}
	}
	return ""
}

// LocationMatches reports whether a profile location is compatible with
// the searched location: either contains the other, case-insensitively.
// An empty search location matches everything.
func LocationMatches(searched, profile string) bool {
	s := strings.ToLower(strings.TrimSpace(searched))
	if s == "" {
		return true
	}
	p := strings.ToLower(strings.TrimSpace(profile))
	if p == "" {
		return false
	}
	return strings.Contains(p, s) || strings.Contains(s, p)
}
