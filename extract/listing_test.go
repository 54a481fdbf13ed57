package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
)

func doc(siteID, html string) *fetch.Document {
	return &fetch.Document{
		SiteID:    siteID,
		URL:       "https://example.test/s",
		HTML:      html,
		FetchedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func magaluCard(name, price, href, extra string) string {
	return fmt.Sprintf(`
	<li data-testid="product-card-container">
		<a href=%q>
			<h2 data-testid="product-title">%s</h2>
			<p data-testid="price-value">%s</p>
			%s
		</a>
	</li>`, href, name, price, extra)
}

func magaluPage(cards ...string) string {
	return "<html><body><ul>" + strings.Join(cards, "\n") + "</ul></body></html>"
}

func TestExtract_MagazineLuiza(t *testing.T) {
	html := magaluPage(
		magaluCard("Smart TV LG 50 Polegadas 4K", "R$ 2.199,00", "/smart-tv-lg/p/abc123/", ""),
		magaluCard("Smart TV Samsung 50 Crystal", "R$ 2.399,00", "https://www.magazineluiza.com.br/tv-samsung/p/def/", ""),
	)

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "smart tv", 5)
	require.NoError(t, err)
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, "Smart TV LG 50 Polegadas 4K", p.Name)
	assert.Equal(t, "R$ 2.199,00", p.PriceText)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 2199.00, *p.Price, 0.001)
	assert.Equal(t, "magazineluiza", p.SiteID)
	assert.Equal(t, "https://www.magazineluiza.com.br/smart-tv-lg/p/abc123/", p.URL)
	assert.Equal(t, models.InStock, p.Availability)
	assert.False(t, p.ExtractedAt.IsZero())

	// Absolute hrefs pass through untouched.
	assert.Equal(t, "https://www.magazineluiza.com.br/tv-samsung/p/def/", products[1].URL)
}

func TestExtract_StopsAtMaxResults(t *testing.T) {
	var cards []string
	for i := 0; i < 10; i++ {
		cards = append(cards, magaluCard(
			fmt.Sprintf("Smart TV Modelo %d", i),
			"R$ 1.999,00",
			fmt.Sprintf("/tv-%d/p/x/", i),
			""))
	}

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", magaluPage(cards...)), "smart tv", 3)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, "Smart TV Modelo 0", products[0].Name, "page order must be preserved")
}

func TestExtract_FiltersIrrelevantListings(t *testing.T) {
	html := magaluPage(
		magaluCard("Capa para Smart TV", "R$ 49,90", "/capa/p/1/", ""),
		magaluCard("Jogo de Panelas Tramontina", "R$ 299,00", "/panelas/p/2/", ""),
		magaluCard("Smart TV Philco 40", "R$ 1.499,00", "/tv/p/3/", ""),
	)

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "smart tv", 5)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Capa para Smart TV", products[0].Name)
	assert.Equal(t, "Smart TV Philco 40", products[1].Name)
}

func TestExtract_UnparsedPriceKept(t *testing.T) {
	html := magaluPage(
		magaluCard("Smart TV Promo", "Indisponível", "/tv/p/1/", ""),
	)

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "smart tv", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Price)
	assert.Equal(t, "Indisponível", products[0].PriceText)
	assert.Equal(t, models.OutOfStock, products[0].Availability)
}

func TestExtract_DiscountDerived(t *testing.T) {
	extra := `<p data-testid="price-original">R$ 2.000,00</p>`
	html := magaluPage(magaluCard("Smart TV Oferta", "R$ 1.500,00", "/tv/p/1/", extra))

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "smart tv", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	require.NotNil(t, p.OriginalPrice)
	assert.InDelta(t, 2000.00, *p.OriginalPrice, 0.001)
	require.NotNil(t, p.DiscountPercent)
	assert.InDelta(t, 25.0, *p.DiscountPercent, 0.001)
}

func TestExtract_UnrecognisedMarkupIsExtractionFailure(t *testing.T) {
	// Small page, no containers, no "nothing found" message: the profile's
	// selectors no longer match what the site serves.
	e := ForSite("magazineluiza")
	_, err := e.Extract(doc("magazineluiza", "<html><body><p>nada aqui</p></body></html>"), "tv", 5)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeExtraction, models.ErrCode(err))
}

func TestExtract_NoResultsMessageYieldsEmpty(t *testing.T) {
	html := `<html><body><p>Sua busca por "tv xyz" não encontrou resultado algum :(</p></body></html>`
	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "tv xyz", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestExtract_FullPageWithoutContainersYieldsEmpty(t *testing.T) {
	// A full-sized storefront page with no listing containers is a search
	// that found nothing, not a broken profile.
	html := "<html><body><header>loja</header>" +
		strings.Repeat("<div class=\"chrome\">menu</div>", 300) +
		"</body></html>"
	require.GreaterOrEqual(t, len(html), 4096)

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "tv", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestExtract_SameDocumentTwiceIsIdentical(t *testing.T) {
	html := magaluPage(
		magaluCard("Smart TV LG 50", "R$ 2.199,00", "/tv-lg/p/abc/", ""),
		magaluCard("Smart TV Samsung 50", "R$ 2.399,00", "/tv-samsung/p/def/", ""),
	)
	d := doc("magazineluiza", html)

	e := ForSite("magazineluiza")
	first, err := e.Extract(d, "smart tv", 5)
	require.NoError(t, err)
	second, err := e.Extract(d, "smart tv", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second, "extraction must be a pure function of the document")
}

func TestExtract_RecognisedEmptyGridIsNotAnError(t *testing.T) {
	// The grid markup is present but holds no product cards: a genuine
	// zero-result search, not a failure.
	html := magaluPage(`<li data-testid="product-card-container"></li>`)
	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "tv", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestExtract_DuplicateURLsCollapsed(t *testing.T) {
	html := magaluPage(
		magaluCard("Smart TV LG Patrocinado", "R$ 2.199,00", "/tv-lg/p/abc/", ""),
		magaluCard("Smart TV LG", "R$ 2.199,00", "/tv-lg/p/abc/", ""),
		magaluCard("Smart TV Samsung", "R$ 2.399,00", "/tv-samsung/p/def/", ""),
	)

	e := ForSite("magazineluiza")
	products, err := e.Extract(doc("magazineluiza", html), "smart tv", 5)
	require.NoError(t, err)
	require.Len(t, products, 2, "repeated listing URL should appear once")
	assert.Equal(t, "Smart TV LG Patrocinado", products[0].Name)
}

func TestExtract_AmazonSplitPrice(t *testing.T) {
	html := `<html><body>
	<div data-component-type="s-search-result">
		<h2><a href="/dp/B0TEST"><span>Echo Dot 5a Geração</span></a></h2>
		<span class="a-price">
			<span class="a-price-whole">399,</span><span class="a-price-fraction">05</span>
		</span>
	</div>
	</body></html>`

	e := ForSite("amazon")
	products, err := e.Extract(doc("amazon", html), "echo dot", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Price)
	assert.InDelta(t, 399.05, *products[0].Price, 0.001)
	assert.Equal(t, "https://www.amazon.com.br/dp/B0TEST", products[0].URL)
}

func TestExtract_AmazonOffscreenPricePreferred(t *testing.T) {
	html := `<html><body>
	<div data-component-type="s-search-result">
		<h2><a href="/dp/B0TEST"><span>Echo Dot</span></a></h2>
		<span class="a-price"><span class="a-offscreen">R$ 379,00</span>
			<span class="a-price-whole">379,</span><span class="a-price-fraction">00</span>
		</span>
	</div>
	</body></html>`

	e := ForSite("amazon")
	products, err := e.Extract(doc("amazon", html), "echo dot", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "R$ 379,00", products[0].PriceText)
}

func TestExtract_MercadoLivreSplitPrice(t *testing.T) {
	html := `<html><body>
	<div class="ui-search-result">
		<h2 class="ui-search-item__title">Furadeira Bosch 550W</h2>
		<div class="ui-search-item__group__element"><a href="https://produto.mercadolivre.com.br/MLB-1"></a></div>
		<span class="andes-money-amount andes-money-amount--previous">
			<span class="andes-money-amount__fraction">1.399</span><span class="andes-money-amount__cents">90</span>
		</span>
		<span class="andes-money-amount">
			<span class="andes-money-amount__fraction">1.199</span><span class="andes-money-amount__cents">90</span>
		</span>
	</div>
	</body></html>`

	e := ForSite("mercadolivre")
	products, err := e.Extract(doc("mercadolivre", html), "furadeira bosch", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	require.NotNil(t, p.Price)
	assert.InDelta(t, 1199.90, *p.Price, 0.001)
	require.NotNil(t, p.OriginalPrice)
	assert.InDelta(t, 1399.90, *p.OriginalPrice, 0.001)
}

func TestValidateRegistries(t *testing.T) {
	require.NoError(t, Validate())
}
