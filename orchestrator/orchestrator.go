// Package orchestrator fans a scraping request out to per-site agents with
// bounded concurrency and folds their outcomes into one consolidated
// result. Individual site failures never abort a run; only invalid input
// does.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/garimpolabs/garimpo/agent"
	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// Orchestrator coordinates one scraping run across multiple sites.
// Safe for concurrent use; agents share the injected fetcher.
type Orchestrator struct {
	fetcher agent.Fetcher
	cfg     config.PipelineConfig
}

// New builds an orchestrator over the given fetcher. The concurrency
// bound is floored at 1 so a zero-value config cannot produce a
// semaphore nothing can ever enter.
func New(fetcher agent.Fetcher, cfg config.PipelineConfig) *Orchestrator {
	if cfg.MaxConcurrentSites < 1 {
		cfg.MaxConcurrentSites = 1
	}
	return &Orchestrator{fetcher: fetcher, cfg: cfg}
}

// Run executes the request. It validates up front and returns an error
// before touching any site when the request is malformed or names an
// unknown site; after that point every failure is absorbed into a site
// outcome and Run always returns a result.
func (o *Orchestrator) Run(ctx context.Context, req models.ScrapingRequest) (*models.ScrapingResult, error) {
	req.Defaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	targets, err := resolveTargets(&req)
	if err != nil {
		return nil, err
	}

	slog.Info("scraping run started",
		"product", req.ProductName,
		"sites", targets,
		"maxPerSite", req.MaxResultsPerSite,
		"maxConcurrent", o.cfg.MaxConcurrentSites)

	outcomes := make([]models.SiteOutcome, len(targets))
	sem := make(chan struct{}, o.cfg.MaxConcurrentSites)
	var wg sync.WaitGroup

	for i, siteID := range targets {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[idx] = canceledOutcome(id)
				return
			}

			siteCtx := ctx
			if o.cfg.SiteTimeout > 0 {
				var cancel context.CancelFunc
				siteCtx, cancel = context.WithTimeout(ctx, o.cfg.SiteTimeout)
				defer cancel()
			}

			a := agent.New(sites.Get(id), o.fetcher)
			outcomes[idx] = a.Search(siteCtx, req.ProductName, req.MaxResultsPerSite)
		}(i, siteID)
	}
	wg.Wait()

	result := assemble(req, outcomes)
	slog.Info("scraping run complete",
		"product", req.ProductName,
		"totalProducts", result.Summary.TotalProducts,
		"succeeded", result.Summary.SitesSucceeded,
		"blocked", result.Summary.SitesBlocked,
		"errored", result.Summary.SitesErrored,
		"executionTime", result.Summary.ExecutionTime)
	return result, nil
}

// resolveTargets expands "all" into the canonical order and rejects
// unknown site IDs. Duplicates are collapsed, first occurrence wins, so
// outcomes stay unique per site while preserving request order.
func resolveTargets(req *models.ScrapingRequest) ([]string, error) {
	if req.WantsAll() {
		return sites.IDs(), nil
	}
	seen := make(map[string]bool, len(req.TargetSites))
	targets := make([]string, 0, len(req.TargetSites))
	for _, id := range req.TargetSites {
		if !sites.Known(id) {
			return nil, models.NewScrapeError(
				models.ErrCodeValidation,
				fmt.Sprintf("unknown site %q (known: %v)", id, sites.IDs()),
				nil,
			)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}
	return targets, nil
}

// canceledOutcome records a site that never got a semaphore slot before
// the run context ended. The detail stays distinct from "timeout", which
// is reserved for agents whose per-site deadline expired.
func canceledOutcome(siteID string) models.SiteOutcome {
	return models.SiteOutcome{
		SiteID:      siteID,
		Products:    []models.Product{},
		Status:      models.StatusError,
		ErrorDetail: "canceled",
	}
}

// assemble builds the consolidated result from per-site outcomes.
// Outcomes keep the resolved target order; summary totals are derived
// entirely from the outcomes so the two can never disagree.
func assemble(req models.ScrapingRequest, outcomes []models.SiteOutcome) *models.ScrapingResult {
	summary := models.Summary{SitesSearched: len(outcomes)}
	for i := range outcomes {
		o := &outcomes[i]
		summary.TotalProducts += len(o.Products)
		switch o.Status {
		case models.StatusOK, models.StatusPartial:
			summary.SitesSucceeded++
		case models.StatusBlocked:
			summary.SitesBlocked++
		default:
			summary.SitesErrored++
		}
		if o.Elapsed > summary.ExecutionTime {
			summary.ExecutionTime = o.Elapsed
		}
	}
	return &models.ScrapingResult{
		Request:   req,
		Outcomes:  outcomes,
		Summary:   summary,
		ScrapedAt: time.Now().UTC(),
	}
}
