package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	icache "MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/ratelimit"
	pkgcache "MarketBrief/pkg/cache"
	applogger "MarketBrief/pkg/logger"
)

// Cache key namespaces.
const (
	marketContextPrefix = "market_context"
	searchPrefix        = "search"
)

// contextEntry is one cached market-context value plus the raw data it was
// formatted from, kept for introspection.
type contextEntry struct {
	Text       string
	Indicators *models.EconomicIndicators
	Live       *models.LiveMarketData
	FetchedAt  time.Time
}

// DataOrchestrator serves ready-to-inject market-context strings per
// (tier, demo) pair behind an in-process TTL cache, plus a parallel
// search-context cache. It is the exclusive owner of both cache maps; the
// cache is a performance optimization, not a consistency mechanism, so
// horizontally scaled instances refetch independently.
type DataOrchestrator struct {
	econ    drepo.EconomicDataSource
	live    drepo.LiveMarketDataSource
	search  drepo.SearchSource
	limits  *ratelimit.ProviderLimiter
	metrics drepo.Metrics
	l       *applogger.Logger

	cache       *icache.TTLCache
	searchCache *icache.TTLCache
	contextTTL  time.Duration
	searchTTL   time.Duration
	maxResults  int

	mu          sync.RWMutex
	lastRefresh time.Time
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*DataOrchestrator)

// WithContextTTL overrides the market-context freshness window (default 1h).
func WithContextTTL(ttl time.Duration) OrchestratorOption {
	return func(o *DataOrchestrator) { o.contextTTL = ttl }
}

// WithSearchTTL overrides the search-context freshness window.
func WithSearchTTL(ttl time.Duration) OrchestratorOption {
	return func(o *DataOrchestrator) { o.searchTTL = ttl }
}

// WithMaxSearchResults caps how many hits a search summary lists.
func WithMaxSearchResults(n int) OrchestratorOption {
	return func(o *DataOrchestrator) { o.maxResults = n }
}

// NewDataOrchestrator creates the orchestrator. The search limiter is the
// same process-wide instance the aggregator owns, so every search call in
// the process queues behind one serialization point.
func NewDataOrchestrator(
	econ drepo.EconomicDataSource,
	live drepo.LiveMarketDataSource,
	search drepo.SearchSource,
	limits *ratelimit.ProviderLimiter,
	metrics drepo.Metrics,
	l *applogger.Logger,
	opts ...OrchestratorOption,
) *DataOrchestrator {
	o := &DataOrchestrator{
		econ:        econ,
		live:        live,
		search:      search,
		limits:      limits,
		metrics:     metrics,
		l:           l,
		cache:       icache.NewTTLCache(),
		searchCache: icache.NewTTLCache(),
		contextTTL:  time.Hour,
		searchTTL:   30 * time.Minute,
		maxResults:  5,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetMarketContextSummary returns the formatted market context for a tier.
// Within the TTL window this is a pure cache read with zero adapter calls.
// A provider outage degrades to omitted sections, never to an error; only an
// invalid tier fails.
func (o *DataOrchestrator) GetMarketContextSummary(ctx context.Context, tier models.Tier, isDemo bool) (string, error) {
	if !models.IsValidTier(tier) {
		return "", fmt.Errorf("invalid tier %q", tier)
	}
	key := contextCacheKey(tier, isDemo)
	if v, ok := o.cache.Get(key); ok {
		if e, ok2 := v.(*contextEntry); ok2 {
			o.recordCache(marketContextPrefix, "hit")
			return e.Text, nil
		}
	}
	o.recordCache(marketContextPrefix, "miss")

	var (
		indicators *models.EconomicIndicators
		live       *models.LiveMarketData
	)
	// STARTER gets a minimal header-only context and never triggers a fetch.
	if tier != models.TierStarter {
		ind, err := o.econ.Indicators(ctx, isDemo)
		if err != nil {
			o.recordProvider(models.SourceFRED, "error")
			o.l.Warn("economic indicators unavailable", applogger.Error(err))
		} else {
			o.recordProvider(models.SourceFRED, "ok")
			indicators = ind
		}
	}
	if tier == models.TierPremium && o.live != nil {
		snap, err := o.live.LiveMarketData(ctx, isDemo)
		if err != nil {
			o.recordProvider(models.SourcePolygon, "error")
			o.l.Warn("live market data unavailable", applogger.Error(err))
		} else {
			o.recordProvider(models.SourcePolygon, "ok")
			live = snap
		}
	}

	now := time.Now()
	text := formatMarketContext(now, tier, indicators, live)
	o.cache.Set(key, &contextEntry{Text: text, Indicators: indicators, Live: live, FetchedAt: now}, o.contextTTL)
	o.mu.Lock()
	o.lastRefresh = now
	o.mu.Unlock()
	return text, nil
}

// GetMarketContext is the legacy-named alias some call sites use; the
// contract is identical.
func (o *DataOrchestrator) GetMarketContext(ctx context.Context, tier models.Tier, isDemo bool) (string, error) {
	return o.GetMarketContextSummary(ctx, tier, isDemo)
}

// GetSearchContext resolves a cached or fresh search context. STARTER is
// denied; provider failure maps to unavailable. Both carry a nil context so
// callers handle them uniformly.
func (o *DataOrchestrator) GetSearchContext(ctx context.Context, query string, tier models.Tier, isDemo bool) models.SearchOutcome {
	if tier == models.TierStarter || o.search == nil {
		return models.SearchOutcome{Status: models.SearchDenied}
	}
	key := searchPrefix + "_" + pkgcache.HashKey(query)
	if v, ok := o.searchCache.Get(key); ok {
		if sc, ok2 := v.(*models.SearchContext); ok2 {
			o.recordCache(searchPrefix, "hit")
			return models.SearchOutcome{Status: models.SearchOK, Result: sc}
		}
	}
	o.recordCache(searchPrefix, "miss")

	if o.limits != nil {
		if err := o.limits.WaitSearch(ctx); err != nil {
			return models.SearchOutcome{Status: models.SearchUnavailable}
		}
	}
	results, err := o.search.Search(ctx, query, o.maxResults)
	if err != nil {
		o.recordProvider(models.SourceBraveSearch, "error")
		o.l.Warn("search unavailable", applogger.String("query", query), applogger.Error(err))
		return models.SearchOutcome{Status: models.SearchUnavailable}
	}
	o.recordProvider(models.SourceBraveSearch, "ok")

	sc := &models.SearchContext{
		Query:   query,
		Results: results,
		Summary: formatSearchSummary(query, results, o.maxResults),
	}
	o.searchCache.Set(key, sc, o.searchTTL)
	return models.SearchOutcome{Status: models.SearchOK, Result: sc}
}

// ForceRefreshAllContext re-derives the market context for every
// (tier, demo) combination. STARTER never fetches indicators but still gets
// its minimal entry re-stamped.
func (o *DataOrchestrator) ForceRefreshAllContext(ctx context.Context) {
	for _, tier := range models.AllTiers() {
		for _, demo := range []bool{false, true} {
			o.cache.Delete(contextCacheKey(tier, demo))
			if _, err := o.GetMarketContextSummary(ctx, tier, demo); err != nil {
				o.l.Error("context refresh failed",
					applogger.String("tier", string(tier)),
					applogger.Bool("demo", demo),
					applogger.Error(err))
			}
		}
	}
}

// InvalidateCache removes entries whose key contains the pattern from both
// caches and returns how many were dropped. An empty pattern clears
// everything.
func (o *DataOrchestrator) InvalidateCache(pattern string) int {
	n := o.cache.DeleteContaining(pattern)
	n += o.searchCache.DeleteContaining(pattern)
	o.l.Info("cache invalidated", applogger.String("pattern", pattern), applogger.Int("removed", n))
	return n
}

// GetCacheStats reports sizes and keys of both caches for diagnostics.
func (o *DataOrchestrator) GetCacheStats() models.CacheStats {
	mcKeys := o.cache.Keys()
	all := append(append([]string{}, mcKeys...), o.searchCache.Keys()...)
	o.mu.RLock()
	last := o.lastRefresh
	o.mu.RUnlock()
	return models.CacheStats{
		Size: len(all),
		Keys: all,
		MarketContextCache: models.MarketCacheStats{
			Size:        len(mcKeys),
			Keys:        mcKeys,
			LastRefresh: last,
		},
	}
}

func (o *DataOrchestrator) recordCache(cache, result string) {
	if o.metrics != nil {
		o.metrics.RecordCacheEvent(cache, result)
	}
}

func (o *DataOrchestrator) recordProvider(source, status string) {
	if o.metrics != nil {
		o.metrics.RecordProviderCall(source, status)
	}
}

func contextCacheKey(tier models.Tier, isDemo bool) string {
	return fmt.Sprintf("%s_%s_%t", marketContextPrefix, tier, isDemo)
}
