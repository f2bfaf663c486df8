package usecase

import (
	"context"
	"sort"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/ratelimit"
	applogger "MarketBrief/pkg/logger"
)

// NewsAggregator produces one relevance-ranked list of market data from all
// enabled sources per refresh cycle. It owns the shared provider limiter for
// its lifetime; sources are queried in fixed priority order and merged by
// sort, so no cross-source ordering guarantee is needed.
type NewsAggregator struct {
	sources []drepo.NewsSource
	limits  *ratelimit.ProviderLimiter
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewNewsAggregator creates the aggregator. Sources are kept sorted by
// priority; disabled sources stay registered and are skipped per cycle.
func NewNewsAggregator(sources []drepo.NewsSource, limits *ratelimit.ProviderLimiter, metrics drepo.Metrics, l *applogger.Logger) *NewsAggregator {
	sorted := make([]drepo.NewsSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
	return &NewsAggregator{sources: sorted, limits: limits, metrics: metrics, l: l}
}

// AggregateMarketData fetches from every enabled source, isolating per-source
// failures. It always returns a (possibly empty) slice; callers must treat
// empty as "no fresh data", not as an error.
func (a *NewsAggregator) AggregateMarketData(ctx context.Context) []models.MarketNewsDatum {
	var out []models.MarketNewsDatum
	for _, src := range a.sources {
		if !src.Enabled() {
			continue
		}
		if err := a.throttle(ctx, src.Name()); err != nil {
			// context cancelled while queued; remaining sources would hit
			// the same wall
			a.l.Warn("aggregator throttle interrupted", applogger.String("source", src.Name()), applogger.Error(err))
			break
		}
		data, err := src.Fetch(ctx)
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordProviderCall(src.Name(), "error")
			}
			a.l.Warn("aggregator source failed", applogger.String("source", src.Name()), applogger.Error(err))
			continue
		}
		if a.metrics != nil {
			a.metrics.RecordProviderCall(src.Name(), "ok")
		}
		out = append(out, data...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// throttle blocks until the named provider may be called. Search calls are
// strictly serialized; polygon calls draw from a per-minute budget.
func (a *NewsAggregator) throttle(ctx context.Context, source string) error {
	if a.limits == nil {
		return nil
	}
	switch source {
	case models.SourceBraveSearch:
		return a.limits.WaitSearch(ctx)
	case models.SourcePolygon:
		return a.limits.WaitPolygon(ctx)
	default:
		return nil
	}
}

// Limiter exposes the shared provider limiter so the orchestrator's search
// path queues behind the same serialization.
func (a *NewsAggregator) Limiter() *ratelimit.ProviderLimiter { return a.limits }
