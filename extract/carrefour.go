package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/garimpolabs/garimpo/sites"
)

// Carrefour's product card is itself the anchor element, so the link is
// the container's own href rather than a nested <a>.
func newCarrefour() Extractor {
	return &listing{
		profile: sites.Get("carrefour"),
		linkHref: func(s *goquery.Selection) string {
			if href, ok := s.Attr("href"); ok && href != "" {
				return href
			}
			if href, ok := s.Find("a").First().Attr("href"); ok {
				return href
			}
			return ""
		},
	}
}
