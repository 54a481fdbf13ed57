package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// Renderer is implemented by the browser package. It navigates a pooled
// headless browser page to a URL and returns the rendered document.
// The indirection keeps fetch/ free of any rod dependency so the chain can
// be tested without a browser.
type Renderer interface {
	Render(ctx context.Context, url string, profile *sites.Profile, userAgent string) (html string, statusCode int, err error)
}

// BrowserStrategy is the heavyweight acquisition path: a real rendered page
// from a pooled headless Chrome session with automation signals masked.
type BrowserStrategy struct {
	renderer Renderer
	uas      *UserAgentPool
}

// NewBrowserStrategy wraps a Renderer as a chain strategy.
func NewBrowserStrategy(renderer Renderer, uas *UserAgentPool) *BrowserStrategy {
	return &BrowserStrategy{renderer: renderer, uas: uas}
}

func (s *BrowserStrategy) Name() string { return "browser" }

func (s *BrowserStrategy) Fetch(ctx context.Context, req *Request) (*Document, error) {
	if s.renderer == nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "no renderer configured", nil)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	html, status, err := s.renderer.Render(ctx, req.URL, req.Profile, s.uas.Next())
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, categorizeTransportError(err)
	}

	if looksBlocked(html, status, req.Profile) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked,
			"block page signature in rendered document", nil)
	}

	return &Document{
		SiteID:      req.Profile.ID,
		URL:         req.URL,
		HTML:        html,
		StatusCode:  status,
		FetchMethod: s.Name(),
		FetchedAt:   time.Now(),
	}, nil
}
