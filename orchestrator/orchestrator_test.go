package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// siteFetcher serves a canned document or error per site and records call
// counts and peak concurrency.
type siteFetcher struct {
	mu      sync.Mutex
	html    map[string]string
	errs    map[string]error
	delay   time.Duration
	hold    bool // delay ignores ctx, to pin a semaphore slot
	calls   int
	active  int
	peak    int
	blocked error
}

func newSiteFetcher() *siteFetcher {
	return &siteFetcher{
		html:    make(map[string]string),
		errs:    make(map[string]error),
		blocked: models.NewScrapeError(models.ErrCodeBlocked, "challenge page", nil),
	}
}

func (f *siteFetcher) Fetch(ctx context.Context, profile *sites.Profile, url string) (*fetch.Document, error) {
	f.mu.Lock()
	f.calls++
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		if f.hold {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, models.NewScrapeError(models.ErrCodeTimeout, "deadline", ctx.Err())
			}
		}
	}

	if err, ok := f.errs[profile.ID]; ok {
		return nil, err
	}
	if html, ok := f.html[profile.ID]; ok {
		return &fetch.Document{SiteID: profile.ID, URL: url, HTML: html, FetchMethod: "http"}, nil
	}
	return nil, f.blocked
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{MaxConcurrentSites: 3, SiteTimeout: 5 * time.Second}
}

// magaluResults is a minimal page matching the magazineluiza profile.
const magaluResults = `<html><body>
<li data-testid="product-card-container">
	<a href="/liquidificador-a/p/1/">
		<h2 data-testid="product-title">Liquidificador Oster 1400W</h2>
		<p data-testid="price-value">R$ 249,90</p>
	</a>
</li>
<li data-testid="product-card-container">
	<a href="/liquidificador-b/p/2/">
		<h2 data-testid="product-title">Liquidificador Philips Walita</h2>
		<p data-testid="price-value">R$ 329,90</p>
	</a>
</li>
</body></html>`

func TestRun_ValidationRejectsBeforeAnyFetch(t *testing.T) {
	f := newSiteFetcher()
	orch := New(f, testPipelineConfig())

	tests := []struct {
		name string
		req  models.ScrapingRequest
	}{
		{"empty product", models.ScrapingRequest{TargetSites: []string{"amazon"}}},
		{"no sites", models.ScrapingRequest{ProductName: "tv"}},
		{"unknown site", models.ScrapingRequest{ProductName: "tv", TargetSites: []string{"ebay"}}},
		{"unknown site mixed with known", models.ScrapingRequest{ProductName: "tv", TargetSites: []string{"amazon", "aliexpress"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orch.Run(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Run() accepted an invalid request")
			}
			if models.ErrCode(err) != models.ErrCodeValidation {
				t.Errorf("error code = %s, want %s", models.ErrCode(err), models.ErrCodeValidation)
			}
		})
	}

	if f.calls != 0 {
		t.Errorf("invalid requests triggered %d fetches", f.calls)
	}
}

func TestRun_AllExpandsToCanonicalOrder(t *testing.T) {
	f := newSiteFetcher() // every site blocked
	orch := New(f, testPipelineConfig())

	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "cafeteira",
		TargetSites: []string{"all"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := sites.IDs()
	if len(result.Outcomes) != len(want) {
		t.Fatalf("outcomes = %d, want %d", len(result.Outcomes), len(want))
	}
	for i, id := range want {
		if result.Outcomes[i].SiteID != id {
			t.Errorf("outcome[%d] = %s, want %s", i, result.Outcomes[i].SiteID, id)
		}
	}
	if result.Summary.SitesBlocked != len(want) {
		t.Errorf("blocked = %d, want %d", result.Summary.SitesBlocked, len(want))
	}
}

func TestRun_PartialFailureStillReturnsResult(t *testing.T) {
	f := newSiteFetcher()
	f.html["magazineluiza"] = magaluResults
	f.errs["mercadolivre"] = models.NewScrapeError(models.ErrCodeNetwork, "conn refused", nil)
	// amazon stays blocked (default).

	orch := New(f, testPipelineConfig())
	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "liquidificador",
		TargetSites: []string{"mercadolivre", "magazineluiza", "amazon"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Request order, not canonical order.
	wantOrder := []string{"mercadolivre", "magazineluiza", "amazon"}
	for i, id := range wantOrder {
		if result.Outcomes[i].SiteID != id {
			t.Errorf("outcome[%d] = %s, want %s", i, result.Outcomes[i].SiteID, id)
		}
	}

	s := result.Summary
	if s.SitesSearched != 3 || s.SitesSucceeded != 1 || s.SitesBlocked != 1 || s.SitesErrored != 1 {
		t.Errorf("summary counts = %+v", s)
	}
	if s.TotalProducts != 2 {
		t.Errorf("total products = %d, want 2", s.TotalProducts)
	}

	ml := result.Outcome("magazineluiza")
	if ml == nil || ml.Status != models.StatusPartial {
		t.Errorf("magazineluiza outcome = %+v, want partial (2 of 5 results)", ml)
	}
	if az := result.Outcome("amazon"); az == nil || az.Status != models.StatusBlocked {
		t.Errorf("amazon outcome = %+v, want blocked", az)
	}
}

func TestRun_DuplicateSitesCollapsed(t *testing.T) {
	f := newSiteFetcher()
	orch := New(f, testPipelineConfig())

	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "tv",
		TargetSites: []string{"amazon", "amazon", "carrefour"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2 (duplicate collapsed)", len(result.Outcomes))
	}
}

func TestRun_ConcurrencyBounded(t *testing.T) {
	f := newSiteFetcher()
	f.delay = 30 * time.Millisecond

	cfg := testPipelineConfig()
	cfg.MaxConcurrentSites = 2
	orch := New(f, cfg)

	_, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "tv",
		TargetSites: []string{"all"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", f.peak)
	}
	if f.calls != len(sites.IDs()) {
		t.Errorf("calls = %d, want %d", f.calls, len(sites.IDs()))
	}
}

func TestRun_SiteTimeoutBecomesErrorOutcome(t *testing.T) {
	f := newSiteFetcher()
	f.delay = 200 * time.Millisecond

	cfg := testPipelineConfig()
	cfg.SiteTimeout = 20 * time.Millisecond
	orch := New(f, cfg)

	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "tv",
		TargetSites: []string{"amazon"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	o := result.Outcome("amazon")
	if o.Status != models.StatusError {
		t.Fatalf("status = %s, want error", o.Status)
	}
	if o.ErrorDetail != "timeout" {
		t.Errorf("error detail = %q, want \"timeout\"", o.ErrorDetail)
	}
}

func TestRun_CanceledBeforeStartReadsAsCanceled(t *testing.T) {
	// One slot, held well past the run deadline: the queued site never
	// starts and must not masquerade as a per-site timeout.
	f := newSiteFetcher()
	f.delay = 150 * time.Millisecond
	f.hold = true

	cfg := testPipelineConfig()
	cfg.MaxConcurrentSites = 1
	orch := New(f, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	result, err := orch.Run(ctx, models.ScrapingRequest{
		ProductName: "tv",
		TargetSites: []string{"amazon", "mercadolivre"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	canceled := 0
	for _, o := range result.Outcomes {
		if o.ErrorDetail == "canceled" {
			canceled++
			if o.Status != models.StatusError {
				t.Errorf("canceled outcome status = %s, want error", o.Status)
			}
		}
	}
	if canceled != 1 {
		t.Errorf("canceled outcomes = %d, want exactly 1", canceled)
	}
}

func TestRun_ZeroValueConfigStillCompletes(t *testing.T) {
	f := newSiteFetcher()
	f.html["magazineluiza"] = magaluResults

	orch := New(f, config.PipelineConfig{})

	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "liquidificador",
		TargetSites: []string{"magazineluiza"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	o := result.Outcome("magazineluiza")
	if o.Status != models.StatusPartial {
		t.Errorf("status = %s, want partial", o.Status)
	}
	if len(o.Products) != 2 {
		t.Errorf("products = %d, want 2", len(o.Products))
	}
}

func TestRun_ExecutionTimeIsMaxNotSum(t *testing.T) {
	f := newSiteFetcher()
	f.delay = 30 * time.Millisecond

	cfg := testPipelineConfig()
	cfg.MaxConcurrentSites = 3
	orch := New(f, cfg)

	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName: "tv",
		TargetSites: []string{"amazon", "mercadolivre", "carrefour"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var max, sum time.Duration
	for i := range result.Outcomes {
		e := result.Outcomes[i].Elapsed
		sum += e
		if e > max {
			max = e
		}
	}
	if result.Summary.ExecutionTime != max {
		t.Errorf("execution time = %v, want max elapsed %v", result.Summary.ExecutionTime, max)
	}
	if sum > 0 && result.Summary.ExecutionTime >= sum {
		t.Errorf("execution time %v looks like a sum (%v), want the max", result.Summary.ExecutionTime, sum)
	}
}

func TestRun_ProductsMatchQuery(t *testing.T) {
	f := newSiteFetcher()
	f.html["magazineluiza"] = magaluResults

	orch := New(f, testPipelineConfig())
	result, err := orch.Run(context.Background(), models.ScrapingRequest{
		ProductName:       "Liquidificador",
		TargetSites:       []string{"magazineluiza"},
		MaxResultsPerSite: 2,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	o := result.Outcome("magazineluiza")
	if o.Status != models.StatusOK {
		t.Fatalf("status = %s, want ok", o.Status)
	}
	for _, p := range o.Products {
		if !strings.Contains(strings.ToLower(p.Name), "liquidificador") {
			t.Errorf("irrelevant product passed the filter: %s", p.Name)
		}
		if p.SiteID != "magazineluiza" {
			t.Errorf("product tagged with wrong site: %s", p.SiteID)
		}
	}
}
