package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garimpolabs/garimpo/sites"
)

// Mercado Livre splits prices into a fraction span (integer part, with
// thousands dots) and an optional cents span. The crossed-out price uses
// the same structure under an --previous modifier, so scope the current
// price lookup away from it.
func newMercadoLivre() Extractor {
	profile := sites.Get("mercadolivre")
	return &listing{
		profile: profile,
		priceText: func(s *goquery.Selection) string {
			current := s.Find(".andes-money-amount").
				Not(".andes-money-amount--previous").First()
			whole := strings.TrimSpace(current.Find(".andes-money-amount__fraction").Text())
			if whole == "" {
				return firstText(s, profile.Fields.Price)
			}
			if cents := strings.TrimSpace(current.Find(".andes-money-amount__cents").Text()); cents != "" {
				return whole + "," + cents
			}
			return whole
		},
		originalPriceText: func(s *goquery.Selection) string {
			prev := s.Find(".andes-money-amount--previous").First()
			whole := strings.TrimSpace(prev.Find(".andes-money-amount__fraction").Text())
			if whole == "" {
				return ""
			}
			if cents := strings.TrimSpace(prev.Find(".andes-money-amount__cents").Text()); cents != "" {
				return whole + "," + cents
			}
			return whole
		},
	}
}
