package models

import (
	"net/url"
	"time"
)

// Availability is the normalised stock status of a listing.
type Availability string

const (
	InStock    Availability = "in_stock"
	OutOfStock Availability = "out_of_stock"
	Unknown    Availability = "unknown"
)

// Product is one normalised listing extracted from a site's search results.
type Product struct {
	// Name is the listing title. Never empty.
	Name string `json:"name"`

	// PriceText is the currency-formatted price as shown on the page
	// (e.g. "R$ 1.234,56").
	PriceText string `json:"price_text"`

	// Price is the parsed numeric value, nil when PriceText could not be
	// parsed. Never negative when set.
	Price *float64 `json:"price,omitempty"`

	// OriginalPrice is the crossed-out pre-discount price, when shown.
	OriginalPrice *float64 `json:"original_price,omitempty"`

	// DiscountPercent is derived from Price and OriginalPrice.
	DiscountPercent *float64 `json:"discount_percent,omitempty"`

	// SiteID identifies the source site.
	SiteID string `json:"site_id"`

	// URL is the absolute product page URL.
	URL string `json:"url"`

	Availability Availability `json:"availability"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// Valid reports whether the product satisfies the pipeline invariants:
// non-empty name, syntactically valid absolute URL, non-negative parsed
// price, and a known availability value.
func (p *Product) Valid() bool {
	if p.Name == "" {
		return false
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	if p.Price != nil && *p.Price < 0 {
		return false
	}
	switch p.Availability {
	case InStock, OutOfStock, Unknown:
		return true
	}
	return false
}
