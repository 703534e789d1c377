package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// Class fragments used by the open-to-work badge and photo frame across
// the layouts seen so far.
var badgeClassIndicators = []string{
	"open-to-work",
	"opentowork",
	"photo-frame--open-to-work",
	"pv-open-to-work-card",
	"member-badge--is-open-to-work",
}

// Visible text the member chose to display
var badgeTextIndicators = []string{
	"#opentowork",
	"open to work",
	"open for opportunities",
}

// HasOpenToWorkSignal scans a card's markup for an open-to-work badge. It
// only reports true on a positive match; unknown layouts yield false.
func HasOpenToWorkSignal(markup string) bool {
	if strings.TrimSpace(markup) == "" {
		return false
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return false
	}

	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		switch n.Type {
		case html.ElementNode:
			if elementSignalsBadge(n) {
				found = true
				return
			}
		case html.TextNode:
			if containsAny(strings.ToLower(n.Data), badgeTextIndicators) {
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func elementSignalsBadge(n *html.Node) bool {
	for _, attr := range n.Attr {
		value := strings.ToLower(attr.Val)
		switch attr.Key {
		case "class":
			if containsAny(value, badgeClassIndicators) {
				return true
			}
		case "data-test-id":
			if value == "open-to-work-badge" {
				return true
			}
		case "alt", "aria-label", "title":
			if containsAny(value, badgeTextIndicators) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
