package fetch

import (
	"math/rand/v2"
	"sync"
)

// UserAgentPool hands out user agents for header rotation. The pool is
// loaded once at startup and read-only afterwards; only the rotation cursor
// is guarded.
type UserAgentPool struct {
	mu     sync.Mutex
	agents []string
	next   int
}

// NewUserAgentPool creates a pool from the configured agent list. The list
// is copied and shuffled so process restarts don't replay the same order.
func NewUserAgentPool(agents []string) *UserAgentPool {
	own := make([]string, len(agents))
	copy(own, agents)
	rand.Shuffle(len(own), func(i, j int) { own[i], own[j] = own[j], own[i] })
	return &UserAgentPool{agents: own}
}

// Next returns the next user agent in rotation, or "" for an empty pool.
func (p *UserAgentPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.agents) == 0 {
		return ""
	}
	ua := p.agents[p.next%len(p.agents)]
	p.next++
	return ua
}

// Size returns the number of agents in the pool.
func (p *UserAgentPool) Size() int {
	return len(p.agents)
}
