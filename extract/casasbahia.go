package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garimpolabs/garimpo/sites"
)

// Casas Bahia cards nest several anchors (wishlist, seller, product); the
// product link is the first anchor pointing at a product path.
func newCasasBahia() Extractor {
	profile := sites.Get("casasbahia")
	return &listing{
		profile:  profile,
		linkHref: productAnchor,
	}
}

// productAnchor prefers anchors whose href looks like a product page over
// utility anchors inside the card.
func productAnchor(s *goquery.Selection) string {
	var found string
	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}
		if strings.Contains(href, "/p/") || strings.Contains(href, "/produto") {
			found = href
			return false
		}
		if found == "" {
			found = href
		}
		return true
	})
	return found
}
