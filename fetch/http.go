package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/garimpolabs/garimpo/models"
)

// HTTPStrategy is the lightweight acquisition path: a plain GET with a
// Chrome-like TLS fingerprint and rotated user agent. Cheaper than a
// browser session but more easily blocked; profiles use it either as the
// sole strategy for low-risk sites or as an explicit fallback.
type HTTPStrategy struct {
	client *http.Client
	uas    *UserAgentPool
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Fallback: if spec generation fails, use HelloChrome_Auto as-is.
		// (Should never happen with a valid utls version.)
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPStrategy creates an HTTPStrategy with a Chrome-like TLS fingerprint.
// ALPN is locked to http/1.1 to avoid the HTTP/2 framing mismatch that
// occurs when utls negotiates h2 but Go's http.Transport only speaks h1.
func NewHTTPStrategy(uas *UserAgentPool) *HTTPStrategy {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPStrategy{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		uas: uas,
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

func (s *HTTPStrategy) Fetch(ctx context.Context, req *Request) (*Document, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNetwork, "build request", err)
	}

	httpReq.Header.Set("User-Agent", s.uas.Next())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "identity")
	httpReq.Header.Set("Upgrade-Insecure-Requests", "1")

	// Site-appropriate headers from the profile override the defaults.
	for k, v := range req.Profile.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, categorizeTransportError(err)
	}
	defer resp.Body.Close()

	// 10 MB cap to prevent unbounded memory use.
	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNetwork, "read body", err)
	}

	html := string(body)

	if blockedStatus(resp.StatusCode) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked,
			fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.Profile.ID), nil)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, models.NewScrapeError(models.ErrCodeNotFound,
			fmt.Sprintf("HTTP 404 for %s", req.URL), nil)
	}
	if resp.StatusCode >= 400 || !isHTMLContentType(resp.Header.Get("Content-Type")) {
		return nil, models.NewScrapeError(models.ErrCodeNetwork,
			fmt.Sprintf("unexpected response: status %d content-type %q",
				resp.StatusCode, resp.Header.Get("Content-Type")), nil)
	}
	if looksBlocked(html, resp.StatusCode, req.Profile) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked,
			"block page signature in response body", nil)
	}

	return &Document{
		SiteID:      req.Profile.ID,
		URL:         resp.Request.URL.String(),
		HTML:        html,
		StatusCode:  resp.StatusCode,
		FetchMethod: s.Name(),
		FetchedAt:   time.Now(),
	}, nil
}

// categorizeTransportError maps transport failures onto the error taxonomy:
// deadline expiry is SITE_TIMEOUT, everything else NETWORK_ERROR.
func categorizeTransportError(err error) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "fetch deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNetwork, "request failed", err)
	}
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
