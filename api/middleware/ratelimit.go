package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/models"
)

// visitorIdleTTL is how long an identity's bucket survives without
// traffic; sweepThreshold is the map size that triggers an inline sweep.
const (
	visitorIdleTTL = 20 * time.Minute
	sweepThreshold = 1024
)

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// visitors is the per-identity bucket table. Idle entries are swept
// inline when the table grows past sweepThreshold, so no background
// goroutine is needed.
type visitors struct {
	mu      sync.Mutex
	entries map[string]*visitor
	limit   rate.Limit
	burst   int
}

func (v *visitors) limiter(identity string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if len(v.entries) > sweepThreshold {
		for id, e := range v.entries {
			if now.Sub(e.lastSeen) > visitorIdleTTL {
				delete(v.entries, id)
			}
		}
	}

	e, ok := v.entries[identity]
	if !ok {
		e = &visitor{lim: rate.NewLimiter(v.limit, v.burst)}
		v.entries[identity] = e
	}
	e.lastSeen = now
	return e.lim
}

// RateLimit returns per-identity token-bucket rate limiting middleware.
// A search request is expensive (it reaches several storefronts through a
// small browser pool), so rejections tell the caller when to come back:
// a Retry-After header plus the same hint in the error message.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	v := &visitors{
		entries: make(map[string]*visitor),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   max(cfg.Burst, 1),
	}

	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get(identityKey); ok {
			identity = key.(string)
		}

		res := v.limiter(identity).Reserve()
		if !res.OK() {
			tooManyRequests(c, int(visitorIdleTTL/time.Second))
			return
		}
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			tooManyRequests(c, int(delay/time.Second)+1)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, retryAfter int) {
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.SearchResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeRateLimited,
			Message: fmt.Sprintf("request budget exhausted, retry in %ds", retryAfter),
		},
	})
}
