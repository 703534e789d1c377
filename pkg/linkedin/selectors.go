package linkedin

// Selector lists are tried in order; the first one that matches wins.
// LinkedIn renders different markup per locale and per A/B bucket, so every
// field carries fallbacks.
var (
	cardSelectors = []string{
		"li.reusable-search__result-container",
		"[data-chameleon-result-urn]",
		".search-result__wrapper",
	}

	nameSelectors = []string{
		".entity-result__title-text a span[aria-hidden='true']",
		".entity-result__title-text a",
		".actor-name",
		"span.name",
	}

	headlineSelectors = []string{
		".entity-result__primary-subtitle",
		".search-result__snippets",
		".subline-level-1",
	}

	locationSelectors = []string{
		".entity-result__secondary-subtitle",
		".subline-level-2",
	}

	linkSelectors = []string{
		".entity-result__title-text a",
		"a[data-control-name='search_srp_result']",
		"a.app-aware-link",
		"a[href*='/in/']",
	}

	badgeSelectors = []string{
		"[data-test-id='open-to-work-badge']",
		".pv-open-to-work-card",
		".pv-member-badge--is-open-to-work",
		"img[alt*='Open to work']",
		"img[alt*='open to work']",
		"[class*='open-to-work']",
		"[class*='opentowork']",
		".member-badge--open-to-work",
	}

	nextSelectors = []string{
		"button[aria-label='Next']",
		"button[aria-label='Suivant']",
		"button[aria-label='Weiter']",
		"a[aria-label='Next']",
		"a[aria-label='Suivant']",
		"button.artdeco-pagination__button--next",
		"button[class*='pagination__button--next']",
	}

	currentPageSelector = "button[aria-current='true']"
	pageButtonSelector  = "li.artdeco-pagination__indicator--number button"

	captchaSelector = "iframe[src*='captcha'], iframe[src*='challenge']"

	loggedInSelectors = []string{
		"nav.global-nav",
		"[data-control-name='nav.settings']",
		".feed-identity-module",
		".global-nav__me",
	}

	locationFilterButtonTexts = []string{"Locations", "Lieux", "Standorte"}

	locationFilterButtonSelectors = []string{
		"button[aria-label*='location']",
		"button[aria-label*='Location']",
		"#searchFilter_geoUrn",
	}

	locationInputSelectors = []string{
		"input[placeholder*='location']",
		"input[placeholder*='Location']",
		"input[placeholder*='lieu']",
		"input[aria-label*='location']",
		"input[role='combobox']",
	}

	suggestionSelectors = []string{
		"[role='option']",
		".basic-typeahead__selectable",
		"li[id*='typeahead']",
	}

	applyFilterTexts = []string{"Show results", "Afficher les résultats", "Ergebnisse anzeigen"}

	applyFilterSelectors = []string{
		"button[data-test-reusables-filter-apply-button]",
		"button.search-reusables__filter-apply-button",
	}
)
