package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garimpolabs/garimpo/cache"
	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/orchestrator"
	"github.com/garimpolabs/garimpo/webhook"
)

// searchRequest is the POST /api/v1/search body: a scraping request plus
// API-only cache control.
type searchRequest struct {
	models.ScrapingRequest

	// MaxCacheAgeMs accepts a cached result no older than this.
	// 0 disables cache lookup; the fresh result is still stored.
	MaxCacheAgeMs int `json:"max_cache_age_ms,omitempty"`
}

// Search returns a handler for POST /api/v1/search.
//
// Partial failure is a success at the HTTP level: a run where some sites
// were blocked still returns 200 with per-site statuses in the body. Only
// a malformed request produces an error status.
func Search(orch *orchestrator.Orchestrator, cc *cache.Cache, hooks config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeValidation,
					Message: "invalid request body: " + err.Error(),
				},
			})
			return
		}

		req.Defaults()
		key := cache.Key(&req.ScrapingRequest)
		maxAge := time.Duration(req.MaxCacheAgeMs) * time.Millisecond
		if result, hit := cc.Get(key, maxAge); hit {
			c.JSON(http.StatusOK, models.SearchResponse{
				Success: true,
				Data:    result,
				Cached:  true,
			})
			return
		}

		result, err := orch.Run(c.Request.Context(), req.ScrapingRequest)
		if err != nil {
			status, detail := errorResponse(err)
			c.JSON(status, models.SearchResponse{Success: false, Error: detail})
			return
		}

		cc.Set(key, result)
		if hooks.URL != "" {
			webhook.DeliverAsync(hooks.URL, hooks.Secret, webhook.NewCompletedEvent(result))
		}
		c.JSON(http.StatusOK, models.SearchResponse{Success: true, Data: result})
	}
}

// errorResponse maps an internal error to an HTTP status and API detail.
func errorResponse(err error) (int, *models.ErrorDetail) {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, &models.ErrorDetail{
			Code:    models.ErrCodeInternal,
			Message: err.Error(),
		}
	}
	switch se.Code {
	case models.ErrCodeValidation:
		return http.StatusBadRequest, se.ToDetail()
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized, se.ToDetail()
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests, se.ToDetail()
	default:
		return http.StatusInternalServerError, se.ToDetail()
	}
}
