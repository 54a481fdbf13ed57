package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garimpolabs/garimpo/models"
	"github.com/garimpolabs/garimpo/sites"
)

// PoolStatser reports browser page pool utilisation.
// *browser.Browser is the production implementation.
type PoolStatser interface {
	Stats() (maxPages, active int)
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(pool PoolStatser, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxPages, active := pool.Stats()

		status := "healthy"
		if maxPages > 0 && active > int(float64(maxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Pool:    models.PoolStats{MaxPages: maxPages, ActivePages: active},
			Sites:   sites.IDs(),
			Version: "0.1.0",
		})
	}
}
