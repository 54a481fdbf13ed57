package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/garimpolabs/garimpo/sites"
)

// blockMarkers are substrings that identify known block/challenge pages.
// Portuguese variants first since every target site is Brazilian.
var blockMarkers = []string{
	"captcha",
	"hcaptcha",
	"recaptcha",
	"px-captcha",
	"validar que você não é um robô",
	"confirme que você não é um robô",
	"verifique que você é humano",
	"acesso negado",
	"access denied",
	"robot check",
	"automated access",
	"checking your browser",
	"cf-challenge",
	"attention required",
	"radware",
	"incapsula",
}

// blockTitleMarkers are phrases that are decisive in a <title> but too
// generic to match against the whole body.
var blockTitleMarkers = []string{
	"just a moment",
	"um momento",
	"robot or human",
	"are you a human",
	"service unavailable",
	"error 403",
}

// blockedStatus reports whether an HTTP status code signals anti-bot
// rejection rather than a transport problem.
func blockedStatus(code int) bool {
	return code == 403 || code == 429 || code == 503
}

// looksBlocked inspects a fetched document for block-page signatures:
// a rejecting status code, challenge markers in the markup or title, or a
// rendered page whose result container is empty while the body is
// suspiciously small.
func looksBlocked(markup string, statusCode int, profile *sites.Profile) bool {
	if blockedStatus(statusCode) {
		return true
	}

	lower := strings.ToLower(markup)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	if title := strings.ToLower(pageTitle(markup)); title != "" {
		for _, marker := range blockTitleMarkers {
			if strings.Contains(title, marker) {
				return true
			}
		}
	}

	// A tiny page with none of the profile's listing containers is the
	// shape of an interstitial, not of an empty search result.
	if len(markup) < 4096 && profile != nil && !hasResultContainer(markup, profile) {
		return true
	}

	return false
}

// pageTitle tokenizes just far enough to read the first <title> element.
func pageTitle(markup string) string {
	tz := html.NewTokenizer(strings.NewReader(markup))
	inTitle := false
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if name, _ := tz.TagName(); string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tz.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}

// hasResultContainer reports whether any of the profile's container
// selectors match the document.
func hasResultContainer(markup string, profile *sites.Profile) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return false
	}
	for _, sel := range profile.Fields.Container {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
