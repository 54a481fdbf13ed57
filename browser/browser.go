// Package browser owns the headless Chrome lifecycle behind the
// browser-driven acquisition strategy: one shared browser process, a
// bounded page pool, stealth configuration, and per-fetch rendering.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// Browser manages the global browser lifecycle and the page pool.
// It is safe for concurrent use. Pages are the one contended resource in
// the pipeline: acquired per fetch attempt, always returned.
type Browser struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	activePages atomic.Int32
}

// New launches a headless browser and initialises the reusable page pool.
func New(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "pt-BR")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Browser{
		browser:  b,
		pagePool: pool,
		cfg:      cfg,
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (b *Browser) Stats() (maxPages, active int) {
	return b.cfg.MaxPages, int(b.activePages.Load())
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	b.browser.MustClose()
	slog.Info("browser shutdown complete")
}

// Render implements fetch.Renderer.
//
// Lifecycle:
//
//  1. Acquire page           – borrow a tab from the pool
//  2. DEFER: cleanup         – about:blank + return to pool (leak prevention)
//  3. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  4. UA + headers           – rotated user agent, site headers, search referer
//  5. Hijack mount           – block images/fonts/media (before navigation!)
//  6. Context binding        – propagate timeout to all Rod operations
//  7. Navigate + wait        – DOM stable, lazy content settled
//  8. Extract                – status code via the performance API, page.HTML()
//
// Steps 3-5 must precede navigation: stealth JS, header overrides and
// resource blocking only apply to navigations that happen after they are
// installed. Step 2 uses the original page reference (no request context),
// so cleanup succeeds even when the request context has expired.
func (b *Browser) Render(ctx context.Context, targetURL string, profile *sites.Profile, userAgent string) (string, int, error) {
	if b.cfg.NavTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.NavTimeout)
		defer cancel()
	}

	// ── 1. Acquire page from pool ────────────────────────────────────
	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, acquireErr := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return "", 0, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 2. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	// ── 3. Stealth injection ─────────────────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	// ── 4. User agent + headers ──────────────────────────────────────
	if userAgent != "" {
		_ = proto.NetworkSetUserAgentOverride{
			UserAgent:      userAgent,
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
		}.Call(page)
	}

	extraHeaders := make(map[string]string, len(profile.Headers)+1)
	if _, hasReferer := profile.Headers["Referer"]; !hasReferer {
		extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(profile.Hostname())
	}
	for k, v := range profile.Headers {
		extraHeaders[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(extraHeaders),
	}.Call(page)

	// ── 5. Mount hijack router ───────────────────────────────────────
	router := setupHijack(page)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind request context to page ──────────────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate and wait for the listing grid to settle ──────────
	if navErr := p.Navigate(targetURL); navErr != nil {
		return "", 0, categorizeNavError(navErr)
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"site", profile.ID, "error", stableErr)
	}

	// Result grids on these sites lazy-load below the fold; a half-page
	// scroll triggers the loaders without waiting for full image hydration.
	_, _ = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight / 2)`)
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)

	// ── 8. Extract status code + rendered HTML ───────────────────────
	// performance.getEntriesByType gives us the status without CDP event
	// listeners (which conflict with the hijack router's Fetch domain).
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return "", statusCode, categorizeNavError(htmlErr)
	}

	return rawHTML, statusCode, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeNavError wraps raw rod errors into typed ScrapeErrors.
func categorizeNavError(err error) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "render deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNetwork, "navigation failed", err)
	}
}
