// Command garimpo searches Brazilian e-commerce sites for a product and
// prints a price comparison.
//
// Usage:
//
//	garimpo [flags] <product name>
//
//	garimpo -sites amazon,mercadolivre -max 3 "notebook gamer"
//	garimpo -save -csv "air fryer"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/garimpolabs/garimpo/browser"
	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/extract"
	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/orchestrator"
	"github.com/garimpolabs/garimpo/sites"
	"github.com/garimpolabs/garimpo/storage"
)

func main() {
	var (
		sitesFlag = flag.String("sites", models.SiteAll, "comma-separated site IDs, or \"all\"")
		maxFlag   = flag.Int("max", models.DefaultMaxResultsPerSite, "max results per site")
		saveFlag  = flag.Bool("save", false, "save the full result as JSON under the data dir")
		csvFlag   = flag.Bool("csv", false, "export products as CSV under the data dir")
		jsonFlag  = flag.Bool("json", false, "print the raw result JSON instead of the report")
		listFlag  = flag.Bool("list-sites", false, "list known site IDs and exit")
	)
	flag.Parse()

	if *listFlag {
		for _, p := range sites.All() {
			blocked := ""
			if p.KnownBlocked {
				blocked = " (frequently blocked)"
			}
			fmt.Printf("%-15s %s%s\n", p.ID, p.DisplayName, blocked)
		}
		return
	}

	product := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if product == "" {
		fmt.Fprintln(os.Stderr, "usage: garimpo [flags] <product name>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	initLogger(cfg.Log)

	if err := sites.Validate(); err != nil {
		fatal(err)
	}
	if err := extract.Validate(); err != nil {
		fatal(err)
	}

	req := models.ScrapingRequest{
		ProductName:       product,
		TargetSites:       strings.Split(*sitesFlag, ","),
		MaxResultsPerSite: *maxFlag,
	}

	br, err := browser.New(cfg.Browser)
	if err != nil {
		fatal(err)
	}
	defer br.Close()

	uas := fetch.NewUserAgentPool(cfg.Fetch.UserAgents)
	chain := fetch.NewChain(fetch.ChainConfig{
		RetryMax:       cfg.Fetch.RetryMax,
		RetryBackoff:   cfg.Fetch.RetryBackoff,
		DelayMin:       cfg.Fetch.DelayMin,
		DelayMax:       cfg.Fetch.DelayMax,
		AttemptTimeout: cfg.Fetch.HTTPTimeout,
	},
		fetch.NewBrowserStrategy(br, uas),
		fetch.NewHTTPStrategy(uas),
	)
	orch := orchestrator.New(chain, cfg.Pipeline)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orch.Run(ctx, req)
	if err != nil {
		fatal(err)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fatal(err)
		}
	} else {
		printReport(result)
	}

	store := storage.New(cfg.Storage)
	if *saveFlag {
		path, err := store.SaveResult(result)
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "result saved to %s\n", path)
	}
	if *csvFlag {
		path, err := store.SaveProductsCSV(result)
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "csv exported to %s\n", path)
	}

	// Nothing found anywhere is an error exit for scripting.
	if result.Summary.TotalProducts == 0 {
		os.Exit(1)
	}
}

// printReport renders the per-site results followed by a cross-site price
// comparison.
func printReport(result *models.ScrapingResult) {
	fmt.Printf("Results for %q\n", result.Request.ProductName)
	fmt.Printf("%d products from %d/%d sites in %s\n\n",
		result.Summary.TotalProducts,
		result.Summary.SitesSucceeded,
		result.Summary.SitesSearched,
		result.Summary.ExecutionTime.Round(10*time.Millisecond))

	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		p := sites.Get(o.SiteID)
		fmt.Printf("── %s [%s]", p.DisplayName, o.Status)
		if o.FetchMethod != "" {
			fmt.Printf(" via %s", o.FetchMethod)
		}
		fmt.Println()
		if o.Failed() {
			fmt.Printf("   %s\n\n", o.ErrorDetail)
			continue
		}
		for j := range o.Products {
			pr := &o.Products[j]
			price := pr.PriceText
			if price == "" {
				price = "price unavailable"
			}
			fmt.Printf("   %d. %s\n      %s", j+1, pr.Name, price)
			if pr.DiscountPercent != nil {
				fmt.Printf("  (-%.0f%%)", *pr.DiscountPercent)
			}
			if pr.Availability == models.OutOfStock {
				fmt.Printf("  [out of stock]")
			}
			fmt.Printf("\n      %s\n", pr.URL)
		}
		fmt.Println()
	}

	printComparison(result)
}

// printComparison lists the cheapest priced product per site, cheapest
// first.
func printComparison(result *models.ScrapingResult) {
	type best struct {
		site    string
		product *models.Product
	}
	var bests []best
	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		var b *models.Product
		for j := range o.Products {
			p := &o.Products[j]
			if p.Price == nil || p.Availability == models.OutOfStock {
				continue
			}
			if b == nil || *p.Price < *b.Price {
				b = p
			}
		}
		if b != nil {
			bests = append(bests, best{site: o.SiteID, product: b})
		}
	}
	if len(bests) == 0 {
		return
	}
	sort.Slice(bests, func(i, j int) bool {
		return *bests[i].product.Price < *bests[j].product.Price
	})

	fmt.Println("Best price per site:")
	for i, b := range bests {
		marker := "  "
		if i == 0 {
			marker = "★ "
		}
		fmt.Printf("%s%-15s R$ %.2f  %s\n",
			marker, sites.Get(b.site).DisplayName, *b.product.Price, b.product.Name)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "garimpo:", err)
	os.Exit(1)
}

// initLogger configures slog on stderr so report output stays clean.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
