package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter paces requests so that each host sees at most one request
// per interval.
type hostLimiter struct {
	base     http.RoundTripper
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostLimiter(base http.RoundTripper, interval time.Duration) *hostLimiter {
	return &hostLimiter{
		base:     base,
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the limiter of host, creating it on first use.
func (h *hostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = l
	return l
}

// RoundTrip implements http.RoundTripper.
func (h *hostLimiter) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := h.limiterFor(req.URL.Host).Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Wait fails early when the deadline cannot be met.
		if _, ok := ctx.Deadline(); ok {
			return nil, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return nil, err
	}
	return h.base.RoundTrip(req)
}
