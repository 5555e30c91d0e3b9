package htmlfeed

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter paces feed requests per hostname so a batch of candidates
// hitting the same board stays polite. Callers resolve the host; the
// limiter only buckets by it.
type HostLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		rps:     rate.Limit(reqPerSec),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host's bucket admits one request or ctx is done.
// An empty host shares a single fallback bucket.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if host == "" {
		host = "_"
	}

	hl.mu.Lock()
	lim, ok := hl.buckets[host]
	if !ok {
		lim = rate.NewLimiter(hl.rps, hl.burst)
		hl.buckets[host] = lim
	}
	hl.mu.Unlock()

	return lim.Wait(ctx)
}
