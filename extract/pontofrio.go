package extract

import (
	"github.com/garimpolabs/garimpo/sites"
)

// Ponto Frio shares its storefront platform with Casas Bahia, anchor
// layout included.
func newPontoFrio() Extractor {
	return &listing{
		profile:  sites.Get("pontofrio"),
		linkHref: productAnchor,
	}
}
