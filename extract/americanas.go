package extract

import (
	"github.com/garimpolabs/garimpo/sites"
)

// Americanas only yields usable markup through the browser strategy; once
// rendered, the cards follow the profile selectors directly.
func newAmericanas() Extractor {
	return &listing{profile: sites.Get("americanas")}
}
