package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Throttled spaces out requests to each host with a token bucket per host.
type Throttled struct {
	next  Fetcher
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewThrottled wraps next so that each host receives at most perSecond
// requests per second, with bursts of up to burst. perSecond <= 0 disables
// throttling.
func NewThrottled(next Fetcher, perSecond float64, burst int) *Throttled {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:     next,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *Throttled) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[host] = l
	}
	return l
}

// Fetch waits for the host's limiter, then delegates.
func (t *Throttled) Fetch(ctx context.Context, req Request) (*Page, error) {
	parsed, err := url.Parse(req.URL)
	if err == nil && parsed.Host != "" {
		if err := t.limiter(strings.ToLower(parsed.Host)).Wait(ctx); err != nil {
			return nil, &Error{URL: req.URL, Kind: KindNetwork, Message: "throttle wait aborted", Cause: err}
		}
	}
	return t.next.Fetch(ctx, req)
}
