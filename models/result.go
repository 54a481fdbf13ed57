package models

import "time"

// OutcomeStatus is the terminal state of one per-site search.
type OutcomeStatus string

const (
	// StatusOK means the fetch and extraction both succeeded with full
	// confidence: max results reached and every price parsed.
	StatusOK OutcomeStatus = "ok"

	// StatusPartial means extraction succeeded but yielded fewer products
	// than requested, or some field parses were low-confidence.
	StatusPartial OutcomeStatus = "partial"

	// StatusBlocked means every acquisition strategy was rejected by the
	// site's anti-bot defenses.
	StatusBlocked OutcomeStatus = "blocked"

	// StatusError covers everything else: network exhaustion, per-site
	// timeout, unrecognised document structure.
	StatusError OutcomeStatus = "error"
)

// SiteOutcome is the result of one per-site agent run.
type SiteOutcome struct {
	SiteID string `json:"site_id"`

	// Products is site-native ordered; empty on blocked/error outcomes.
	Products []Product `json:"products"`

	Status OutcomeStatus `json:"status"`

	// ErrorDetail is set for blocked/error outcomes.
	ErrorDetail string `json:"error_detail,omitempty"`

	// FetchMethod records the strategy that produced the document
	// ("http" or "browser"); empty when no fetch succeeded.
	FetchMethod string `json:"fetch_method,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Failed reports whether the outcome carries no usable products.
func (o *SiteOutcome) Failed() bool {
	return o.Status == StatusBlocked || o.Status == StatusError
}

// Summary aggregates outcome counts for one scraping run.
type Summary struct {
	TotalProducts  int           `json:"total_products"`
	SitesSearched  int           `json:"sites_searched"`
	SitesSucceeded int           `json:"sites_succeeded"`
	SitesBlocked   int           `json:"sites_blocked"`
	SitesErrored   int           `json:"sites_errored"`
	ExecutionTime  time.Duration `json:"execution_time_ns"`
}

// ScrapingResult is the consolidated, immutable report returned to the
// caller. Outcomes preserve the request's target site order.
type ScrapingResult struct {
	Request  ScrapingRequest `json:"request"`
	Outcomes []SiteOutcome   `json:"outcomes"`
	Summary  Summary         `json:"summary"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// Outcome returns the outcome for a site ID, or nil when absent.
func (r *ScrapingResult) Outcome(siteID string) *SiteOutcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].SiteID == siteID {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// AllProducts flattens products across outcomes, preserving site order.
func (r *ScrapingResult) AllProducts() []Product {
	out := make([]Product, 0, r.Summary.TotalProducts)
	for i := range r.Outcomes {
		out = append(out, r.Outcomes[i].Products...)
	}
	return out
}
