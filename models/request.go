package models

import "strings"

// SiteAll is the wildcard accepted in TargetSites; the orchestrator expands
// it to the full known site set in canonical order.
const SiteAll = "all"

// DefaultMaxResultsPerSite bounds how many products one site contributes
// when the caller does not say otherwise.
const DefaultMaxResultsPerSite = 5

// ScrapingRequest describes one product search across a set of sites.
// It is constructed once per invocation and never mutated afterwards.
type ScrapingRequest struct {
	// ProductName is the search query. Required.
	ProductName string `json:"product_name"`

	// TargetSites lists site identifiers to search, or the single entry
	// "all". Site IDs are lowercased during Defaults().
	TargetSites []string `json:"target_sites"`

	// MaxResultsPerSite caps the products returned per site.
	// Default: 5.
	MaxResultsPerSite int `json:"max_results_per_site,omitempty"`
}

// Defaults normalises site IDs and applies default values to unset fields.
func (r *ScrapingRequest) Defaults() {
	r.ProductName = strings.TrimSpace(r.ProductName)
	for i, s := range r.TargetSites {
		r.TargetSites[i] = strings.ToLower(strings.TrimSpace(s))
	}
	if r.MaxResultsPerSite <= 0 {
		r.MaxResultsPerSite = DefaultMaxResultsPerSite
	}
}

// Validate checks the request shape. Site IDs are checked against the known
// profile set by the orchestrator, not here.
func (r *ScrapingRequest) Validate() error {
	if r.ProductName == "" {
		return NewScrapeError(ErrCodeValidation, "product_name must not be empty", nil)
	}
	if len(r.TargetSites) == 0 {
		return NewScrapeError(ErrCodeValidation, "target_sites must not be empty", nil)
	}
	return nil
}

// WantsAll reports whether the request asks for every known site.
func (r *ScrapingRequest) WantsAll() bool {
	for _, s := range r.TargetSites {
		if s == SiteAll {
			return true
		}
	}
	return false
}
