package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// outOfStockMarkers are the Portuguese phrases storefronts use on listings
// that cannot currently be bought.
var outOfStockMarkers = []string{
	"esgotado",
	"indisponível",
	"indisponivel",
	"sem estoque",
	"fora de estoque",
	"produto indisponível",
}

// noResultsMarkers are the phrases storefronts render on a search that
// found nothing.
var noResultsMarkers = []string{
	"não encontrou resultado",
	"nenhum resultado",
	"não encontramos",
	"nenhum produto encontrado",
	"sua busca não retornou",
	"no results for",
}

// fullPageSize is the size above which a rendered page is assumed to be a
// real storefront page rather than an error stub or interstitial. Matches
// the small-page threshold the block detector uses on the fetch side.
const fullPageSize = 4 << 10

// listing is the shared profile-driven extractor. It walks the site's
// listing containers in page order and maps each to a Product via the
// profile's field selectors, stopping once max relevant products have
// been collected. Site-specific markup quirks plug in through the hooks.
type listing struct {
	profile *sites.Profile

	// priceText overrides how the sale price text is read from a
	// container. Nil means "first text match of the Price selectors".
	priceText func(s *goquery.Selection) string

	// originalPriceText overrides the crossed-out price lookup.
	originalPriceText func(s *goquery.Selection) string

	// linkHref overrides how the product URL is read. Nil means "href of
	// the first match of the Link selectors".
	linkHref func(s *goquery.Selection) string
}

func (l *listing) SiteID() string { return l.profile.ID }

func (l *listing) Extract(doc *fetch.Document, query string, max int) ([]models.Product, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeExtraction,
			"failed to parse HTML",
			err,
		)
	}

	containers := l.findContainers(gq)
	if containers == nil {
		// A container-less page is a genuine "nothing found" when the site
		// says so, or when the page is full-sized (searches that miss still
		// render the whole storefront chrome). Only a small page without
		// the message means the profile no longer matches the markup.
		if zeroResultsPage(doc.HTML) {
			return []models.Product{}, nil
		}
		return nil, models.NewScrapeError(
			models.ErrCodeExtraction,
			"document matched no known listing markup",
			nil,
		)
	}

	// The timestamp comes from the fetch, not the wall clock, so repeated
	// extraction of the same document yields the same products.
	fetchedAt := doc.FetchedAt.UTC()
	products := make([]models.Product, 0, max)
	seenURLs := make(map[string]bool, max)

	// Single forward pass: containers past the cutoff are never visited.
	containers.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		p, ok := l.product(s, fetchedAt)
		if !ok {
			return true
		}
		if !Relevant(query, p.Name) {
			return true
		}
		// The same listing can appear twice (sponsored slot + organic).
		if seenURLs[p.URL] {
			return true
		}
		seenURLs[p.URL] = true
		products = append(products, p)
		return len(products) < max
	})

	return products, nil
}

// zeroResultsPage reports whether a container-less document is an empty
// search result rather than unrecognised markup.
func zeroResultsPage(markup string) bool {
	lower := strings.ToLower(markup)
	for _, m := range noResultsMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return len(markup) >= fullPageSize
}

// findContainers returns the first Container selector group that matches,
// or nil when none does.
func (l *listing) findContainers(gq *goquery.Document) *goquery.Selection {
	for _, sel := range l.profile.Fields.Container {
		if s := gq.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// product maps one listing container to a Product. Returns ok=false when
// the container carries no usable name (sponsored slots, separators).
func (l *listing) product(s *goquery.Selection, fetchedAt time.Time) (models.Product, bool) {
	name := firstText(s, l.profile.Fields.Name)
	if name == "" {
		return models.Product{}, false
	}

	rawPrice := l.readPriceText(s)
	price, _ := ParsePrice(rawPrice)

	var origPtr *float64
	if rawOrig := l.readOriginalPriceText(s); rawOrig != "" {
		origPtr, _ = ParsePrice(rawOrig)
	}

	href := l.readLinkHref(s)

	p := models.Product{
		Name:          name,
		PriceText:     rawPrice,
		Price:         price,
		OriginalPrice: origPtr,
		SiteID:        l.profile.ID,
		URL:           l.profile.AbsoluteURL(href),
		Availability:  l.availability(s, price),
		ExtractedAt:   fetchedAt,
	}
	if p.Price != nil && p.OriginalPrice != nil && *p.OriginalPrice > *p.Price {
		d := (*p.OriginalPrice - *p.Price) / *p.OriginalPrice * 100
		p.DiscountPercent = &d
	}

	if !p.Valid() {
		return models.Product{}, false
	}
	return p, true
}

func (l *listing) readPriceText(s *goquery.Selection) string {
	if l.priceText != nil {
		return l.priceText(s)
	}
	return firstText(s, l.profile.Fields.Price)
}

func (l *listing) readOriginalPriceText(s *goquery.Selection) string {
	if l.originalPriceText != nil {
		return l.originalPriceText(s)
	}
	return firstText(s, l.profile.Fields.OriginalPrice)
}

func (l *listing) readLinkHref(s *goquery.Selection) string {
	if l.linkHref != nil {
		return l.linkHref(s)
	}
	for _, sel := range l.profile.Fields.Link {
		if href, ok := s.Find(sel).First().Attr("href"); ok && href != "" {
			return href
		}
	}
	return ""
}

// availability resolves the stock status: an explicit unavailability marker
// wins, a parsed price implies in stock, everything else is unknown.
func (l *listing) availability(s *goquery.Selection, price *float64) models.Availability {
	text := strings.ToLower(firstText(s, l.profile.Fields.Availability))
	if text == "" {
		// Some sites put the marker in the container body, not a
		// dedicated element.
		text = strings.ToLower(s.Text())
	}
	for _, m := range outOfStockMarkers {
		if strings.Contains(text, m) {
			return models.OutOfStock
		}
	}
	if price != nil {
		return models.InStock
	}
	return models.Unknown
}

// firstText returns the trimmed text of the first selector that matches
// with non-empty content.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
