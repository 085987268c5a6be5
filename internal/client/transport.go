package client

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/lablabs/countries-explorer/internal/limiter"
	"github.com/lablabs/countries-explorer/internal/metrics"
)

// Transport is the client's http.RoundTripper. It waits on the rate limiter
// and counts every round trip it lets through.
type Transport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	calls   atomic.Int64
}

// NewTransport wraps base. A nil base uses http.DefaultTransport; a nil l
// disables rate limiting.
func NewTransport(base http.RoundTripper, l *rate.Limiter) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, limiter: l}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := limiter.Wait(req.Context(), t.limiter); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}
	t.calls.Add(1)
	metrics.IncHTTPRoundTrip()
	return t.base.RoundTrip(req)
}

// Calls returns the number of round trips issued so far.
func (t *Transport) Calls() int64 {
	return t.calls.Load()
}
