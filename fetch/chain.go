package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// ChainConfig tunes retry and pacing behavior for the strategy chain.
type ChainConfig struct {
	// RetryMax is how many extra attempts a transient failure earns on the
	// same strategy before falling back.
	RetryMax int

	// RetryBackoff is the base backoff between retries, doubled per attempt.
	RetryBackoff time.Duration

	// DelayMin and DelayMax bound the randomised inter-request delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// AttemptTimeout bounds one strategy attempt. The caller's context
	// still bounds the whole chain.
	AttemptTimeout time.Duration
}

// Chain walks a site profile's acquisition strategies in priority order.
//
// Blocked and not-found responses advance to the next strategy immediately;
// transient network failures and timeouts are retried a bounded number of
// times with backoff first. Only the first successful document is used;
// partial documents from failed strategies are never merged.
type Chain struct {
	strategies map[string]Strategy
	cfg        ChainConfig
	pacer      *pacer
}

// NewChain builds a chain over the given strategies, keyed by Name().
func NewChain(cfg ChainConfig, strategies ...Strategy) *Chain {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &Chain{
		strategies: m,
		cfg:        cfg,
		pacer:      newPacer(cfg.DelayMin, cfg.DelayMax),
	}
}

// Fetch resolves url through the profile's strategy chain. On exhaustion the
// last failure is returned, so a chain that ended blocked reports blocked.
func (c *Chain) Fetch(ctx context.Context, profile *sites.Profile, url string) (*Document, error) {
	var lastErr error

	for _, name := range profile.Strategies {
		strat, ok := c.strategies[name]
		if !ok {
			// Profile validation catches unknown names; a registered name
			// without a wired strategy (e.g. browser disabled) is skipped.
			slog.Debug("strategy not wired, skipping", "site", profile.ID, "strategy", name)
			continue
		}

		doc, err := c.fetchWithRetry(ctx, strat, profile, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "site deadline exceeded", ctx.Err())
		}
		slog.Info("strategy failed, falling back",
			"site", profile.ID, "strategy", name, "error", err)
	}

	if lastErr == nil {
		lastErr = models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("no usable strategy for %s", profile.ID), nil)
	}
	return nil, lastErr
}

// fetchWithRetry runs one strategy, retrying transient failures.
func (c *Chain) fetchWithRetry(ctx context.Context, strat Strategy, profile *sites.Profile, url string) (*Document, error) {
	req := &Request{
		URL:     url,
		Profile: profile,
		Timeout: c.cfg.AttemptTimeout,
	}
	host := profile.Hostname()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.pacer.wait(ctx, host); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "canceled while pacing", err)
		}

		doc, err := strat.Fetch(ctx, req)
		if err == nil {
			slog.Debug("fetch succeeded",
				"site", profile.ID, "strategy", strat.Name(), "attempt", attempt+1)
			return doc, nil
		}
		lastErr = err

		// Blocked never retries on the same strategy; an unparsable or
		// missing page won't improve either.
		if !models.IsRetryable(err) || attempt >= c.cfg.RetryMax || ctx.Err() != nil {
			return nil, lastErr
		}

		backoff := c.cfg.RetryBackoff << attempt
		slog.Debug("transient fetch failure, retrying",
			"site", profile.ID, "strategy", strat.Name(),
			"attempt", attempt+1, "backoff", backoff, "error", err)
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, lastErr
		case <-t.C:
		}
	}
}
