package fetch

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces out requests per host: a token bucket guarantees the minimum
// gap, and a bounded uniform jitter on top keeps the cadence from looking
// machine-regular. State is per-host so pacing one site never stalls another.
type pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	min, max time.Duration
}

func newPacer(min, max time.Duration) *pacer {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &pacer{
		limiters: make(map[string]*rate.Limiter),
		min:      min,
		max:      max,
	}
}

func (p *pacer) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.min), 1)
		p.limiters[host] = l
	}
	return l
}

// wait blocks until the host's minimum gap has passed plus a random jitter,
// or until ctx is done.
func (p *pacer) wait(ctx context.Context, host string) error {
	if err := p.limiter(host).Wait(ctx); err != nil {
		return err
	}
	jitter := p.max - p.min
	if jitter <= 0 {
		return nil
	}
	d := time.Duration(rand.Int64N(int64(jitter)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
