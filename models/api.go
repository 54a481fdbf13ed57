package models

// SearchResponse is the envelope for POST /api/v1/search.
type SearchResponse struct {
	Success bool            `json:"success"`
	Data    *ScrapingResult `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`

	// Cached is true when Data was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// PoolStats is a snapshot of browser page pool utilisation.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string    `json:"status"`
	Uptime  string    `json:"uptime"`
	Pool    PoolStats `json:"pool"`
	Sites   []string  `json:"sites"`
	Version string    `json:"version"`
}
