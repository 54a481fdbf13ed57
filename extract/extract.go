// Package extract turns raw search-results HTML into normalised product
// listings. One extractor per site, all built on a shared profile-driven
// walk over the listing containers; site files only supply the quirks the
// shared walk cannot express (split price markup, container-as-link, ...).
package extract

import (
	"fmt"

	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// Extractor parses one site's search results HTML.
type Extractor interface {
	// SiteID identifies the site this extractor handles.
	SiteID() string

	// Extract returns up to max products relevant to query, in page order.
	// A document whose markup contains none of the site's listing
	// containers yields ErrCodeExtraction; an empty-but-recognised result
	// grid yields an empty slice and no error.
	Extract(doc *fetch.Document, query string, max int) ([]models.Product, error)
}

var extractors = map[string]Extractor{}

func register(e Extractor) {
	extractors[e.SiteID()] = e
}

func init() {
	register(newAmazon())
	register(newMercadoLivre())
	register(newCarrefour())
	register(newMagazineLuiza())
	register(newAmericanas())
	register(newCasasBahia())
	register(newPontoFrio())
}

// ForSite returns the extractor registered for a site ID, or nil.
func ForSite(id string) Extractor {
	return extractors[id]
}

// Validate checks that every registered site profile has a matching
// extractor and vice versa. Run at startup alongside sites.Validate.
func Validate() error {
	for _, id := range sites.IDs() {
		if _, ok := extractors[id]; !ok {
			return fmt.Errorf("extract: no extractor registered for site %q", id)
		}
	}
	for id := range extractors {
		if !sites.Known(id) {
			return fmt.Errorf("extract: extractor %q has no site profile", id)
		}
	}
	return nil
}
