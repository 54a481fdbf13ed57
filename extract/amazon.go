package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garimpolabs/garimpo/sites"
)

// Amazon renders the full "R$ 1.234,56" in the visually-hidden
// .a-offscreen span, but some card layouts only ship the split
// whole/fraction pair. Combine them when the offscreen span is absent.
func newAmazon() Extractor {
	profile := sites.Get("amazon")
	return &listing{
		profile: profile,
		priceText: func(s *goquery.Selection) string {
			if t := strings.TrimSpace(s.Find(".a-price .a-offscreen").First().Text()); t != "" {
				return t
			}
			whole := strings.TrimSuffix(strings.TrimSpace(s.Find(".a-price-whole").First().Text()), ",")
			if whole == "" {
				return firstText(s, profile.Fields.Price)
			}
			frac := strings.TrimSpace(s.Find(".a-price-fraction").First().Text())
			if frac != "" {
				return whole + "," + frac
			}
			return whole
		},
	}
}
