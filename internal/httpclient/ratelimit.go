package httpclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter is a per-logical-host token bucket gate, a property of the
// client instance rather than of any single request (spec.md §4.1). Hosts
// with no configured rate pass through unthrottled.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	configs  map[string]rate.Limit
	burst    int
}

// NewHostLimiter builds an empty limiter set. Call SetRate per host before
// use; hosts never configured are unthrottled.
func NewHostLimiter() *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		configs:  make(map[string]rate.Limit),
		burst:    1,
	}
}

// SetRate configures host to allow requestsPerSecond sustained requests,
// with a burst of one (spec.md §4.1's "integer requests/second").
func (h *HostLimiter) SetRate(host string, requestsPerSecond int) {
	if requestsPerSecond <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configs[host] = rate.Limit(requestsPerSecond)
	h.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), h.burst)
}

// Wait blocks until a token is available for host, or ctx is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	limiter, ok := h.limiters[host]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
