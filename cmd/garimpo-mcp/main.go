// Command garimpo-mcp is a stdio MCP bridge to a running garimpo-server,
// exposing the price search as a tool for MCP clients.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the garimpo API request model.
type searchRequest struct {
	ProductName       string   `json:"product_name"`
	TargetSites       []string `json:"target_sites"`
	MaxResultsPerSite int      `json:"max_results_per_site,omitempty"`
	MaxCacheAgeMs     int      `json:"max_cache_age_ms,omitempty"`
}

// searchResponse mirrors the garimpo API response model.
type searchResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Outcomes []struct {
			SiteID      string `json:"site_id"`
			Status      string `json:"status"`
			ErrorDetail string `json:"error_detail"`
			Products    []struct {
				Name         string   `json:"name"`
				PriceText    string   `json:"price_text"`
				Price        *float64 `json:"price"`
				URL          string   `json:"url"`
				Availability string   `json:"availability"`
			} `json:"products"`
		} `json:"outcomes"`
		Summary struct {
			TotalProducts  int `json:"total_products"`
			SitesSearched  int `json:"sites_searched"`
			SitesSucceeded int `json:"sites_succeeded"`
			SitesBlocked   int `json:"sites_blocked"`
		} `json:"summary"`
	} `json:"data"`
	Cached bool `json:"cached"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("GARIMPO_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("GARIMPO_API_KEY")

	s := server.NewMCPServer(
		"garimpo",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_prices",
		mcp.WithDescription("Search Brazilian e-commerce sites (Amazon BR, Mercado Livre, Carrefour, Magazine Luiza, Americanas, Casas Bahia, Ponto Frio) for a product and compare prices. Partial results are normal: individual sites may block scraping."),
		mcp.WithString("product",
			mcp.Required(),
			mcp.Description("Product name to search for, in Portuguese for best results"),
		),
		mcp.WithString("sites",
			mcp.Description("Comma-separated site IDs to search, or 'all' (default). Known IDs: amazon, mercadolivre, carrefour, magazineluiza, americanas, casasbahia, pontofrio"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum products per site (default: 5)"),
		),
	)

	s.AddTool(searchTool, handleSearchPrices(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleSearchPrices(apiURL, apiKey string) server.ToolHandlerFunc {
	// Whole-run budget: several sites, browser rendering, retries.
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		product, err := request.RequireString("product")
		if err != nil {
			return mcp.NewToolResultError("product is required"), nil
		}

		targetSites := []string{"all"}
		if raw := strings.TrimSpace(request.GetString("sites", "")); raw != "" {
			targetSites = strings.Split(raw, ",")
		}

		reqBody := searchRequest{
			ProductName:       product,
			TargetSites:       targetSites,
			MaxResultsPerSite: request.GetInt("max_results", 0),
			// Repeated tool calls for the same product within 10 minutes
			// reuse the cached run instead of re-hitting the sites.
			MaxCacheAgeMs: int((10 * time.Minute).Milliseconds()),
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/search", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success || searchResp.Data == nil {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatResult(product, &searchResp)), nil
	}
}

// formatResult renders the search outcome as readable text for the client.
func formatResult(product string, resp *searchResponse) string {
	d := resp.Data

	var sb strings.Builder
	fmt.Fprintf(&sb, "Price search for %q: %d products from %d/%d sites",
		product, d.Summary.TotalProducts, d.Summary.SitesSucceeded, d.Summary.SitesSearched)
	if d.Summary.SitesBlocked > 0 {
		fmt.Fprintf(&sb, " (%d blocked)", d.Summary.SitesBlocked)
	}
	if resp.Cached {
		sb.WriteString(" [cached]")
	}
	sb.WriteString("\n\n")

	for _, o := range d.Outcomes {
		fmt.Fprintf(&sb, "--- %s: %s ---\n", o.SiteID, o.Status)
		if len(o.Products) == 0 {
			if o.ErrorDetail != "" {
				fmt.Fprintf(&sb, "%s\n", o.ErrorDetail)
			}
			sb.WriteString("\n")
			continue
		}
		for i, p := range o.Products {
			price := p.PriceText
			if price == "" {
				price = "price unavailable"
			}
			fmt.Fprintf(&sb, "%d. %s\n   %s", i+1, p.Name, price)
			if p.Availability == "out_of_stock" {
				sb.WriteString(" [out of stock]")
			}
			fmt.Fprintf(&sb, "\n   %s\n", p.URL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
