// limiter/limiter.go
package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Defaults for the public countries API (4 requests/second with burst of 2).
const (
	DefaultRPS   = 4
	DefaultBurst = 2
)

// New returns a limiter allowing rps requests per second. A non-positive rps
// disables limiting.
func New(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until l allows the request. A nil l never blocks.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
