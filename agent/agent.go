// Package agent runs one site's end-to-end search: build the search URL,
// acquire the page through the fetch chain, extract listings, and fold the
// result or failure into a SiteOutcome. Agents never panic the pipeline;
// every failure mode becomes a terminal outcome status.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/garimpolabs/garimpo/extract"
	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// Fetcher acquires a search results document for one site.
// *fetch.Chain is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, profile *sites.Profile, url string) (*fetch.Document, error)
}

// Agent searches a single site.
type Agent struct {
	profile   *sites.Profile
	fetcher   Fetcher
	extractor extract.Extractor
}

// New builds an agent for the given profile. The extractor is looked up
// from the extract registry; a missing extractor is a programming error
// caught by extract.Validate at startup.
func New(profile *sites.Profile, fetcher Fetcher) *Agent {
	return &Agent{
		profile:   profile,
		fetcher:   fetcher,
		extractor: extract.ForSite(profile.ID),
	}
}

// Search runs the site search and always returns a terminal outcome.
// The error return is reserved for invalid input the orchestrator should
// have rejected; operational failures land in the outcome instead.
func (a *Agent) Search(ctx context.Context, query string, maxResults int) models.SiteOutcome {
	start := time.Now()
	log := slog.With("site", a.profile.ID, "query", query)

	outcome := models.SiteOutcome{
		SiteID:   a.profile.ID,
		Products: []models.Product{},
	}

	searchURL := a.profile.SearchURL(query)
	doc, err := a.fetcher.Fetch(ctx, a.profile, searchURL)
	if err != nil {
		outcome.Status = fetchFailureStatus(err)
		outcome.ErrorDetail = failureDetail(ctx, err)
		outcome.Elapsed = time.Since(start)
		log.Warn("site search failed during fetch",
			"status", outcome.Status, "detail", outcome.ErrorDetail,
			"elapsed", outcome.Elapsed)
		return outcome
	}
	outcome.FetchMethod = doc.FetchMethod

	products, err := a.extractor.Extract(doc, query, maxResults)
	if err != nil {
		outcome.Status = models.StatusError
		outcome.ErrorDetail = failureDetail(ctx, err)
		outcome.Elapsed = time.Since(start)
		log.Warn("site search failed during extraction",
			"fetchMethod", doc.FetchMethod, "detail", outcome.ErrorDetail)
		return outcome
	}

	outcome.Products = products
	outcome.Status = resultStatus(products, maxResults)
	outcome.Elapsed = time.Since(start)
	log.Info("site search complete",
		"status", outcome.Status, "products", len(products),
		"fetchMethod", doc.FetchMethod, "elapsed", outcome.Elapsed)
	return outcome
}

// fetchFailureStatus maps a fetch error to blocked or error.
func fetchFailureStatus(err error) models.OutcomeStatus {
	if models.IsBlocked(err) {
		return models.StatusBlocked
	}
	return models.StatusError
}

// failureDetail prefers the per-site deadline over the wrapped error text,
// so a timeout reads as a timeout even when the underlying strategy
// reported it as a transport failure.
func failureDetail(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	return err.Error()
}

// resultStatus grades a successful extraction: full house with every price
// parsed is ok, anything less is partial.
func resultStatus(products []models.Product, maxResults int) models.OutcomeStatus {
	if len(products) < maxResults {
		return models.StatusPartial
	}
	for i := range products {
		if products[i].Price == nil {
			return models.StatusPartial
		}
	}
	return models.StatusOK
}
