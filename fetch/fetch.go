// Package fetch implements the acquisition side of the pipeline: pluggable
// strategies that turn a search URL into a raw document, and the fallback
// chain that walks them in a site profile's priority order.
package fetch

import (
	"context"
	"time"

	"github.com/garimpolabs/garimpo/sites"
)

// Strategy is the interface all acquisition strategies implement.
type Strategy interface {
	// Name returns the strategy identifier ("http", "browser").
	Name() string

	// Fetch retrieves the document for the given request. Failures carry a
	// models.ScrapeError code: SITE_BLOCKED, SITE_TIMEOUT, NETWORK_ERROR
	// or NOT_FOUND.
	Fetch(ctx context.Context, req *Request) (*Document, error)
}

// Request contains everything a strategy needs to fetch one page.
type Request struct {
	URL     string
	Profile *sites.Profile
	Timeout time.Duration
}

// Document is the raw fetched page, scoped to one fetch attempt: produced
// by a strategy, consumed once by the matching extractor, then discarded.
type Document struct {
	SiteID      string
	URL         string
	HTML        string
	StatusCode  int
	FetchMethod string
	FetchedAt   time.Time
}
