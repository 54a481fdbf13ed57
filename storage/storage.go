// Package storage persists scraping results to disk as timestamped JSON
// reports and flat CSV product exports.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/models"
)

// Store writes results under a data directory:
//
//	<dataDir>/results/<slug>_<timestamp>.json
//	<dataDir>/exports/<slug>_<timestamp>.csv
type Store struct {
	dataDir string
}

// New builds a store rooted at cfg.DataDir. Directories are created
// lazily on first write.
func New(cfg config.StorageConfig) *Store {
	return &Store{dataDir: cfg.DataDir}
}

// SaveResult writes the full result as indented JSON and returns the path.
func (s *Store) SaveResult(result *models.ScrapingResult) (string, error) {
	dir := filepath.Join(s.dataDir, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create results dir: %w", err)
	}

	path := filepath.Join(dir, s.filename(result, "json"))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write result: %w", err)
	}
	slog.Info("result saved", "path", path, "products", result.Summary.TotalProducts)
	return path, nil
}

// csvHeader is the column layout of product exports.
var csvHeader = []string{
	"site", "name", "price", "price_text", "original_price",
	"discount_percent", "availability", "url", "extracted_at",
}

// SaveProductsCSV flattens every product across sites into one CSV file
// and returns the path. Sites appear in outcome order.
func (s *Store) SaveProductsCSV(result *models.ScrapingResult) (string, error) {
	dir := filepath.Join(s.dataDir, "exports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create exports dir: %w", err)
	}

	path := filepath.Join(dir, s.filename(result, "csv"))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("storage: write csv header: %w", err)
	}
	for _, p := range result.AllProducts() {
		row := []string{
			p.SiteID,
			p.Name,
			floatField(p.Price),
			p.PriceText,
			floatField(p.OriginalPrice),
			floatField(p.DiscountPercent),
			string(p.Availability),
			p.URL,
			p.ExtractedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("storage: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("storage: flush csv: %w", err)
	}
	slog.Info("csv export saved", "path", path)
	return path, nil
}

// LoadResult reads a previously saved JSON report.
func LoadResult(path string) (*models.ScrapingResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read result: %w", err)
	}
	var result models.ScrapingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("storage: decode result: %w", err)
	}
	return &result, nil
}

// filename builds "<slug>_<timestamp>.<ext>" from the searched product name.
func (s *Store) filename(result *models.ScrapingResult, ext string) string {
	return fmt.Sprintf("%s_%s.%s",
		slugify(result.Request.ProductName),
		result.ScrapedAt.Format("20060102_150405"),
		ext)
}

// slugify reduces a product name to a safe filename fragment.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "result"
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
