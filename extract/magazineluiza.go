package extract

import (
	"github.com/garimpolabs/garimpo/sites"
)

// Magazine Luiza's data-testid attributes map cleanly onto the shared
// walk; no markup quirks to work around.
func newMagazineLuiza() Extractor {
	return &listing{profile: sites.Get("magazineluiza")}
}
