package repository

import (
	"context"

	"MarketBrief/internal/domain/models"
)

// EconomicDataSource resolves a fully-populated indicator snapshot or errors.
// Partial-failure handling happens inside the adapter; the core only sees
// "data" or "unavailable this cycle".
type EconomicDataSource interface {
	Indicators(ctx context.Context, demo bool) (*models.EconomicIndicators, error)
}

// LiveMarketDataSource resolves a live rate snapshot (premium tier only).
type LiveMarketDataSource interface {
	LiveMarketData(ctx context.Context, demo bool) (*models.LiveMarketData, error)
}

// SearchSource performs a web search and returns normalized results.
type SearchSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// NewsSource is one enabled provider in the aggregation cycle. Fetch returns
// relevance-scored data; an error contributes zero records without aborting
// the cycle.
type NewsSource interface {
	Name() string
	Priority() int
	Enabled() bool
	Fetch(ctx context.Context) ([]models.MarketNewsDatum, error)
}

// ContextStore persists market-news context rows keyed by (tier, origin).
// Upserts are atomic by key; concurrent writers are resolved by last-write-wins
// on LastUpdate at read time, not by locking.
type ContextStore interface {
	Upsert(ctx context.Context, row *models.MarketNewsContext) error
	Get(ctx context.Context, tier models.Tier, origin models.ContextOrigin) (*models.MarketNewsContext, error)
	// Latest returns the most-recently-updated row whose AvailableTiers
	// includes tier, regardless of origin. Returns nil when no row exists.
	Latest(ctx context.Context, tier models.Tier) (*models.MarketNewsContext, error)
	Health(ctx context.Context) error
}

// HistoryStore is the append-only audit ledger for context mutations.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.MarketNewsHistoryEntry) error
	Recent(ctx context.Context, tier models.Tier, limit int) ([]models.MarketNewsHistoryEntry, error)
	Health(ctx context.Context) error
}

// EventPublisher broadcasts context lifecycle events to sibling instances.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.ContextEvent) error
	Close() error
}

// Metrics records operational counters for the context pipeline.
type Metrics interface {
	RecordProviderCall(source, status string)
	RecordCacheEvent(cache, result string)
	RecordSynthesis(tier string, seconds float64)
	RecordContextRefresh(tier string)
}
