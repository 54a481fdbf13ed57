package fetch

import (
	"strings"
	"testing"

	"github.com/garimpolabs/garimpo/sites"
)

// listingPage builds an HTML page with n result containers matching the
// magazineluiza profile, padded past the small-page heuristic threshold.
func listingPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := 0; i < n; i++ {
		b.WriteString(`<li data-testid="product-card-container"><h2>item</h2></li>`)
	}
	b.WriteString("</ul>")
	b.WriteString(strings.Repeat("<!-- pad -->", 400))
	b.WriteString("</body></html>")
	return b.String()
}

// titledPage wraps a padded page with result containers in the given title.
func titledPage(title string) string {
	return "<html><head><title>" + title + "</title></head><body>" +
		`<li data-testid="product-card-container"><h2>item</h2></li>` +
		strings.Repeat("<!-- pad -->", 400) +
		"</body></html>"
}

func TestPageTitle(t *testing.T) {
	if got := pageTitle(titledPage("Busca | Magazine Luiza")); got != "Busca | Magazine Luiza" {
		t.Errorf("pageTitle() = %q", got)
	}
	if got := pageTitle("<html><body>no title here</body></html>"); got != "" {
		t.Errorf("pageTitle() = %q, want empty", got)
	}
}

func TestBlockedStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 301: false, 404: false,
		403: true, 429: true, 503: true,
	} {
		if got := blockedStatus(code); got != want {
			t.Errorf("blockedStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestLooksBlocked(t *testing.T) {
	profile := sites.Get("magazineluiza")

	tests := []struct {
		name   string
		html   string
		status int
		want   bool
	}{
		{"normal listing", listingPage(5), 200, false},
		{"rejecting status wins", listingPage(5), 403, true},
		{"captcha marker", listingPage(5) + "<div id='px-captcha'></div>", 200, true},
		{"portuguese challenge", "<html><body>Confirme que você não é um robô</body></html>", 200, true},
		{"cloudflare interstitial", "<html><title>Attention Required! | Cloudflare</title></html>", 200, true},
		{"challenge title on full page", titledPage("Just a moment..."), 200, true},
		{"portuguese challenge title", titledPage("Um momento, estamos verificando seu acesso"), 200, true},
		{"benign title on full page", titledPage("Busca | Magazine Luiza"), 200, false},
		{"tiny page without containers", "<html><body>loading...</body></html>", 200, true},
		{"tiny page with containers", `<html><body><div data-testid="product-card-container"></div></body></html>`, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksBlocked(tt.html, tt.status, profile); got != tt.want {
				t.Errorf("looksBlocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasResultContainer(t *testing.T) {
	profile := sites.Get("amazon")
	html := `<div data-component-type="s-search-result"></div>`
	if !hasResultContainer(html, profile) {
		t.Error("container not found in matching markup")
	}
	if hasResultContainer("<div></div>", profile) {
		t.Error("container found in empty markup")
	}
}
