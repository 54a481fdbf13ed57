package sites

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// CanonicalOrder is the system-wide site ordering, used when a request asks
// for "all" and for stable reporting.
var CanonicalOrder = []string{
	"amazon",
	"mercadolivre",
	"carrefour",
	"magazineluiza",
	"americanas",
	"casasbahia",
	"pontofrio",
}

var registry = map[string]*Profile{
	"amazon": {
		ID:            "amazon",
		DisplayName:   "Amazon BR",
		BaseURL:       "https://www.amazon.com.br",
		searchPattern: "https://www.amazon.com.br/s?k={query}&ref=nb_sb_noss",
		encoding:      encodePlus,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		Risk:          RiskMedium,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
		},
		Fields: FieldMapping{
			Container:     []string{"[data-component-type='s-search-result']", ".s-result-item"},
			Name:          []string{"h2 a span", ".a-size-mini span", ".a-size-base-plus", "h2 span"},
			Price:         []string{".a-price .a-offscreen", ".a-price-whole", ".a-price-range"},
			OriginalPrice: []string{".a-price.a-text-price .a-offscreen"},
			Link:          []string{"h2 a", ".a-link-normal", "a[href*='/dp/']"},
			Availability:  []string{".a-color-price + span", "[aria-label*='estoque']"},
		},
	},
	"mercadolivre": {
		ID:            "mercadolivre",
		DisplayName:   "Mercado Livre",
		BaseURL:       "https://www.mercadolivre.com.br",
		searchPattern: "https://lista.mercadolivre.com.br/{query}",
		encoding:      encodeDash,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		Risk:          RiskLow,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
		},
		Fields: FieldMapping{
			Container:     []string{".ui-search-result", ".andes-card", ".shops__item"},
			Name:          []string{".ui-search-item__title", ".poly-component__title", ".shops__item-title"},
			Price:         []string{".andes-money-amount__fraction", ".price-tag", ".andes-money-amount"},
			OriginalPrice: []string{".andes-money-amount--previous .andes-money-amount__fraction"},
			Link:          []string{".ui-search-item__group__element a", ".poly-component__title-wrapper a", ".shops__item-link"},
			Availability:  []string{".ui-search-item__stock"},
		},
	},
	"carrefour": {
		ID:            "carrefour",
		DisplayName:   "Carrefour",
		BaseURL:       "https://www.carrefour.com.br",
		searchPattern: "https://www.carrefour.com.br/busca/{query}",
		encoding:      encodePath,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		Risk:          RiskMedium,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
			"Referer":         "https://www.carrefour.com.br/",
		},
		Fields: FieldMapping{
			Container:     []string{"a[data-testid='search-product-card']", "[data-testid*='product-card']", "article"},
			Name:          []string{"[data-testid*='name']", "[data-testid*='title']", "h2", "h3"},
			Price:         []string{"[data-testid*='price']", "span[class*='price']"},
			OriginalPrice: []string{"[data-testid*='old-price']", ".line-through", "[class*='old']"},
			Link:          nil, // the container itself is the link
			Availability:  []string{"[data-testid*='availability']", "[class*='stock']"},
		},
	},
	"magazineluiza": {
		ID:            "magazineluiza",
		DisplayName:   "Magazine Luiza",
		BaseURL:       "https://www.magazineluiza.com.br",
		searchPattern: "https://www.magazineluiza.com.br/busca/{query}/",
		encoding:      encodePath,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		Risk:          RiskMedium,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
		},
		Fields: FieldMapping{
			Container:     []string{"[data-testid='product-card-container']", "[data-testid='product-card']", "li[data-testid]", ".product-card"},
			Name:          []string{"[data-testid='product-title']", "h2", ".product-title"},
			Price:         []string{"[data-testid='price-value']", ".price-template", ".sales-price"},
			OriginalPrice: []string{"[data-testid='price-original']", "[data-testid='old-price']", ".old-price", ".price-line-through"},
			Link:          []string{"a[href*='/p/']", "a[data-testid='product-card-container']", ".product-link"},
			Availability:  []string{"[data-testid='availability']"},
		},
	},
	"americanas": {
		ID:            "americanas",
		DisplayName:   "Americanas",
		BaseURL:       "https://www.americanas.com.br",
		searchPattern: "https://www.americanas.com.br/busca/{query}",
		encoding:      encodePath,
		// Heavy client-side rendering; plain HTTP returns an empty SPA shell.
		Strategies: []string{StrategyBrowser},
		Risk:       RiskMedium,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
		},
		Fields: FieldMapping{
			Container:     []string{"[data-testid='product-card']", ".product-item", "article"},
			Name:          []string{"[data-testid='product-title']", "h3", ".product-name"},
			Price:         []string{"[data-testid='price-value']", ".price", ".sales-price"},
			OriginalPrice: []string{"[data-testid='old-price']", ".list-price"},
			Link:          []string{"a[href*='/produto/']", "a[href*='americanas.com.br']", "a"},
			Availability:  []string{"[data-fs-empty-state='true']"},
		},
	},
	"casasbahia": {
		ID:            "casasbahia",
		DisplayName:   "Casas Bahia",
		BaseURL:       "https://www.casasbahia.com.br",
		searchPattern: "https://www.casasbahia.com.br/busca?q={query}",
		encoding:      encodePlus,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		KnownBlocked:  true,
		Risk:          RiskHigh,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
			"Referer":         "https://www.casasbahia.com.br/",
		},
		Fields: FieldMapping{
			Container:     []string{"[data-testid='product-card']", ".product-card", ".showcase-item"},
			Name:          []string{"h3", "h2", "[data-testid='product-title']", ".product-title"},
			Price:         []string{".price-current", "[data-testid='price-value']", ".sales-price", ".price"},
			OriginalPrice: []string{".price-old", "[data-testid='old-price']"},
			Link:          []string{"a"},
			Availability:  []string{"[class*='unavailable']"},
		},
	},
	"pontofrio": {
		ID:            "pontofrio",
		DisplayName:   "Ponto Frio",
		BaseURL:       "https://www.pontofrio.com.br",
		searchPattern: "https://www.pontofrio.com.br/busca/{query}",
		encoding:      encodePath,
		Strategies:    []string{StrategyBrowser, StrategyHTTP},
		KnownBlocked:  true,
		Risk:          RiskHigh,
		Headers: map[string]string{
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8,en-US;q=0.7",
			"Referer":         "https://www.pontofrio.com.br/",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "same-origin",
		},
		Fields: FieldMapping{
			Container:     []string{"[data-testid='product-card']", ".product-card", ".showcase-item", ".product-item"},
			Name:          []string{"h2", "h3", ".product-title", "[data-testid='product-title']"},
			Price:         []string{".price-current", ".sales-price", ".price", "[data-testid='price-value']"},
			OriginalPrice: []string{".price-old", ".list-price"},
			Link:          []string{"a"},
			Availability:  []string{"[class*='unavailable']"},
		},
	},
}

// Get returns the profile for a site ID, or nil when unknown.
func Get(id string) *Profile {
	return registry[id]
}

// Known reports whether id names a registered site.
func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

// All returns every profile in canonical order.
func All() []*Profile {
	out := make([]*Profile, 0, len(CanonicalOrder))
	for _, id := range CanonicalOrder {
		out = append(out, registry[id])
	}
	return out
}

// IDs returns the canonical site ID list.
func IDs() []string {
	out := make([]string, len(CanonicalOrder))
	copy(out, CanonicalOrder)
	return out
}

// Validate checks registry integrity: canonical order covers the registry
// exactly, every profile declares at least one known strategy, and every
// selector compiles. Run once at startup so a bad profile fails fast
// instead of surfacing mid-scrape.
func Validate() error {
	if len(CanonicalOrder) != len(registry) {
		return fmt.Errorf("sites: canonical order has %d entries, registry has %d",
			len(CanonicalOrder), len(registry))
	}
	for _, id := range CanonicalOrder {
		p, ok := registry[id]
		if !ok {
			return fmt.Errorf("sites: %q in canonical order but not registered", id)
		}
		if p.ID != id {
			return fmt.Errorf("sites: profile %q registered under key %q", p.ID, id)
		}
		if len(p.Strategies) == 0 {
			return fmt.Errorf("sites: %s declares no strategies", id)
		}
		for _, s := range p.Strategies {
			if s != StrategyBrowser && s != StrategyHTTP {
				return fmt.Errorf("sites: %s declares unknown strategy %q", id, s)
			}
		}
		if len(p.Fields.Container) == 0 {
			return fmt.Errorf("sites: %s has no container selector", id)
		}
		for _, sel := range p.Fields.selectors() {
			if _, err := cascadia.Parse(sel); err != nil {
				return fmt.Errorf("sites: %s selector %q: %w", id, sel, err)
			}
		}
	}
	return nil
}
