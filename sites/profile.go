// Package sites holds the static per-site descriptors: which acquisition
// strategies a site supports, how risky it is to hit, and where in its
// markup the product fields live. Profiles are pure data, loaded once at
// startup and read-only thereafter.
package sites

import (
	"net/url"
	"strings"
)

// Strategy identifiers referenced by profiles, in fallback priority order.
const (
	StrategyBrowser = "browser"
	StrategyHTTP    = "http"
)

// Risk grades how aggressive a site's anti-bot defenses are. Reporting and
// pacing hints only; it never changes pipeline semantics.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// queryEncoding selects how the product name is embedded in the search URL.
type queryEncoding int

const (
	encodePlus queryEncoding = iota // spaces become '+'
	encodePath                      // spaces become '%20'
	encodeDash                      // spaces become '-' (path segment style)
)

// FieldMapping describes where product fields live in a site's listing
// markup. Each field is an ordered list of CSS selector alternatives; the
// extractor tries them in order and uses the first that matches. Sites
// redesign often, so most entries carry several generations of selectors.
type FieldMapping struct {
	Container     []string
	Name          []string
	Price         []string
	OriginalPrice []string
	Link          []string
	Availability  []string
}

// selectors returns every selector in the mapping, for validation.
func (m *FieldMapping) selectors() []string {
	var all []string
	for _, group := range [][]string{
		m.Container, m.Name, m.Price, m.OriginalPrice, m.Link, m.Availability,
	} {
		all = append(all, group...)
	}
	return all
}

// Profile is the static descriptor of one target site.
type Profile struct {
	// ID is the canonical site identifier ("amazon", "mercadolivre", ...).
	ID string

	// DisplayName is the human-readable site name.
	DisplayName string

	// BaseURL resolves relative product links.
	BaseURL string

	// searchPattern contains a {query} placeholder.
	searchPattern string
	encoding      queryEncoding

	// Strategies is the acquisition fallback chain, highest priority first.
	Strategies []string

	// KnownBlocked flags sites that have historically rejected every
	// strategy. Informative only: the fetch is still attempted, since the
	// anti-bot landscape changes.
	KnownBlocked bool

	Risk Risk

	// Headers are site-appropriate request headers for the HTTP strategy.
	Headers map[string]string

	Fields FieldMapping
}

// SearchURL builds the site's search results URL for a product query.
func (p *Profile) SearchURL(query string) string {
	var encoded string
	switch p.encoding {
	case encodePath:
		encoded = url.PathEscape(query)
	case encodeDash:
		encoded = strings.ReplaceAll(strings.TrimSpace(query), " ", "-")
		encoded = url.PathEscape(encoded)
	default:
		encoded = url.QueryEscape(query)
	}
	return strings.Replace(p.searchPattern, "{query}", encoded, 1)
}

// Hostname returns the host of the site's base URL.
func (p *Profile) Hostname() string {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return p.BaseURL
	}
	return u.Hostname()
}

// AbsoluteURL resolves href against the site's base URL.
func (p *Profile) AbsoluteURL(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
