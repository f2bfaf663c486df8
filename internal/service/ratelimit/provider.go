package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ProviderLimiter throttles outbound provider calls before their quotas are
// hit. One instance is constructed at wiring time and handed to the
// aggregator, which owns it for the process lifetime; Wait* blocks instead of
// failing so concurrent callers share one backoff queue.
type ProviderLimiter struct {
	search  *rate.Limiter
	polygon *rate.Limiter
}

// NewProviderLimiter builds the shared limiter. searchInterval is the minimum
// spacing between search calls (serialization, not just capping);
// polygonPerMinute is the per-minute call budget for the premium provider.
func NewProviderLimiter(searchInterval time.Duration, polygonPerMinute int) *ProviderLimiter {
	if searchInterval <= 0 {
		searchInterval = 1100 * time.Millisecond
	}
	if polygonPerMinute <= 0 {
		polygonPerMinute = 5
	}
	return &ProviderLimiter{
		search:  rate.NewLimiter(rate.Every(searchInterval), 1),
		polygon: rate.NewLimiter(rate.Limit(float64(polygonPerMinute)/60.0), polygonPerMinute),
	}
}

// WaitSearch blocks until the next search call may proceed.
func (p *ProviderLimiter) WaitSearch(ctx context.Context) error {
	return p.search.Wait(ctx)
}

// WaitPolygon blocks until the next polygon call may proceed.
func (p *ProviderLimiter) WaitPolygon(ctx context.Context) error {
	return p.polygon.Wait(ctx)
}
