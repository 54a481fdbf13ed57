package models

import (
	"testing"
)

func TestScrapingRequest_Defaults(t *testing.T) {
	req := ScrapingRequest{
		ProductName: "  Notebook Gamer  ",
		TargetSites: []string{" Amazon ", "MERCADOLIVRE"},
	}
	req.Defaults()

	if req.ProductName != "Notebook Gamer" {
		t.Errorf("product name not trimmed: %q", req.ProductName)
	}
	if req.TargetSites[0] != "amazon" || req.TargetSites[1] != "mercadolivre" {
		t.Errorf("site IDs not normalised: %v", req.TargetSites)
	}
	if req.MaxResultsPerSite != DefaultMaxResultsPerSite {
		t.Errorf("default max results = %d, want %d", req.MaxResultsPerSite, DefaultMaxResultsPerSite)
	}
}

func TestScrapingRequest_DefaultsKeepsExplicitMax(t *testing.T) {
	req := ScrapingRequest{ProductName: "x", TargetSites: []string{"amazon"}, MaxResultsPerSite: 12}
	req.Defaults()
	if req.MaxResultsPerSite != 12 {
		t.Errorf("explicit max overwritten: %d", req.MaxResultsPerSite)
	}
}

func TestScrapingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ScrapingRequest
		wantErr bool
	}{
		{"valid", ScrapingRequest{ProductName: "tv", TargetSites: []string{"amazon"}}, false},
		{"empty product", ScrapingRequest{TargetSites: []string{"amazon"}}, true},
		{"whitespace product", ScrapingRequest{ProductName: "   ", TargetSites: []string{"amazon"}}, true},
		{"no sites", ScrapingRequest{ProductName: "tv"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Defaults()
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && ErrCode(err) != ErrCodeValidation {
				t.Errorf("error code = %s, want %s", ErrCode(err), ErrCodeValidation)
			}
		})
	}
}

func TestScrapingRequest_WantsAll(t *testing.T) {
	req := ScrapingRequest{ProductName: "tv", TargetSites: []string{"amazon", "all"}}
	if !req.WantsAll() {
		t.Error("WantsAll() = false with 'all' present")
	}
	req.TargetSites = []string{"amazon"}
	if req.WantsAll() {
		t.Error("WantsAll() = true without 'all'")
	}
}
