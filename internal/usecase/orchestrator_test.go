package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/service/ratelimit"
)

func indicatorSnapshot(fed, cpiYoY, mortgage, apr float64) *models.EconomicIndicators {
	pt := func(v float64) models.IndicatorPoint {
		return models.IndicatorPoint{Value: v, ObservationDate: "2025-07-01", Source: models.SourceFRED, LastUpdated: time.Now()}
	}
	return &models.EconomicIndicators{
		CPIYoY:        pt(cpiYoY),
		CPIIndex:      pt(310.5),
		FedRate:       pt(fed),
		MortgageRate:  pt(mortgage),
		CreditCardAPR: pt(apr),
	}
}

func liveSnapshot(cdRate float64) *models.LiveMarketData {
	return &models.LiveMarketData{
		CDRates:        []models.CDRate{{Term: "12-month", Rate: cdRate, Institution: "First National", LastUpdated: time.Now()}},
		TreasuryYields: []models.TreasuryYield{{Maturity: "10year", Yield: 4.4, LastUpdated: time.Now()}},
		MortgageRates:  []models.MortgageRate{{Type: "30-year-fixed", Rate: 6.8, LastUpdated: time.Now()}},
	}
}

func TestMarketContextCachedWithinTTL(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	o := NewDataOrchestrator(econ, nil, nil, nil, nil, testLogger(t))

	first, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err)
	second, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, econ.callCount(), "second read must come from cache")
}

func TestMarketContextTierGating(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	live := &fakeLive{snap: liveSnapshot(5.1)}
	o := NewDataOrchestrator(econ, live, nil, nil, nil, testLogger(t))

	starter, err := o.GetMarketContextSummary(context.Background(), models.TierStarter, false)
	require.NoError(t, err)
	assert.Zero(t, econ.callCount(), "starter never fetches")
	assert.NotContains(t, starter, "ECONOMIC INDICATORS:")
	assert.Contains(t, starter, "CURRENT MARKET CONTEXT (Updated:")
	assert.Contains(t, starter, "KEY INSIGHTS:")

	standard, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err)
	assert.Contains(t, standard, "ECONOMIC INDICATORS:")
	assert.NotContains(t, standard, "LIVE MARKET DATA:")
	assert.Zero(t, live.calls)

	premium, err := o.GetMarketContextSummary(context.Background(), models.TierPremium, false)
	require.NoError(t, err)
	assert.Contains(t, premium, "ECONOMIC INDICATORS:")
	assert.Contains(t, premium, "LIVE MARKET DATA:")
	assert.Equal(t, 1, live.calls)
}

func TestMarketContextExactFormat(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	o := NewDataOrchestrator(econ, nil, nil, nil, nil, testLogger(t))

	text, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err)

	assert.Contains(t, text, "- Fed Funds Rate: 5.25%")
	assert.Contains(t, text, "- CPI (YoY): 3.1%")
	assert.Contains(t, text, "- 30-Year Mortgage Rate: 6.8%")
	assert.Contains(t, text, "- Average Credit Card APR: 21.5%")
	assert.True(t, strings.HasSuffix(text,
		"Use this current market context to provide informed financial advice and recommendations."))

	// fed 5.25 > 5 fires the saver insight; cpi 3.1 and mortgage 6.8 stay quiet
	assert.Contains(t, text, "High interest rates favor savers - consider high-yield savings accounts and CDs.")
	assert.NotContains(t, text, "Elevated inflation suggests")
	assert.NotContains(t, text, "High mortgage rates suggest")
}

func TestKeyInsightBoundaries(t *testing.T) {
	// all readings exactly at thresholds: strict comparisons keep every rule quiet
	at := formatKeyInsights(indicatorSnapshot(5.0, 3.2, 7.0, 20), liveSnapshot(4.99))
	assert.Contains(t, at, "Market conditions are within normal ranges - maintain a diversified approach.")

	over := formatKeyInsights(indicatorSnapshot(5.01, 3.21, 7.01, 20), liveSnapshot(5.0))
	assert.Contains(t, over, "High interest rates favor savers - consider high-yield savings accounts and CDs.")
	assert.Contains(t, over, "Elevated inflation suggests TIPS and other inflation-protected investments may be beneficial.")
	assert.Contains(t, over, "High mortgage rates suggest waiting for rate drops or exploring refinancing opportunities.")
	// CD insight uses >=, so exactly 5.0 fires
	assert.Contains(t, over, "High-yield CD rates available - consider laddering CDs for steady income.")
	assert.NotContains(t, over, "within normal ranges")
}

func TestMarketContextDegradesOnProviderFailure(t *testing.T) {
	econ := &fakeEcon{err: errors.New("fred down")}
	o := NewDataOrchestrator(econ, nil, nil, nil, nil, testLogger(t))

	text, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err, "provider outage must not surface as an error")
	assert.NotContains(t, text, "ECONOMIC INDICATORS:")
	assert.Contains(t, text, "KEY INSIGHTS:")
	assert.Contains(t, text, "within normal ranges")
}

func TestDemoAndLiveContextsCachedSeparately(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	o := NewDataOrchestrator(econ, nil, nil, nil, nil, testLogger(t))

	_, err := o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	require.NoError(t, err)
	_, err = o.GetMarketContextSummary(context.Background(), models.TierStandard, true)
	require.NoError(t, err)

	assert.Equal(t, 2, econ.callCount())
	stats := o.GetCacheStats()
	assert.Contains(t, stats.MarketContextCache.Keys, "market_context_standard_false")
	assert.Contains(t, stats.MarketContextCache.Keys, "market_context_standard_true")
}

func TestSearchContextOutcomes(t *testing.T) {
	search := &fakeSearch{results: []models.SearchResult{
		{Title: "CD rates climb", Snippet: "Best offers this week"},
	}}
	o := NewDataOrchestrator(&fakeEcon{}, nil, search, nil, nil, testLogger(t))

	denied := o.GetSearchContext(context.Background(), "cd rates", models.TierStarter, false)
	assert.Equal(t, models.SearchDenied, denied.Status)
	assert.Nil(t, denied.Context())

	ok := o.GetSearchContext(context.Background(), "cd rates", models.TierStandard, false)
	require.Equal(t, models.SearchOK, ok.Status)
	require.NotNil(t, ok.Context())
	assert.Contains(t, ok.Context().Summary, `Latest real-time information for "cd rates":`)
	assert.Contains(t, ok.Context().Summary, "1. CD rates climb - Best offers this week")
}

func TestSearchContextUnavailableOnProviderFailure(t *testing.T) {
	search := &fakeSearch{err: errors.New("quota exceeded")}
	o := NewDataOrchestrator(&fakeEcon{}, nil, search, nil, nil, testLogger(t))

	out := o.GetSearchContext(context.Background(), "cd rates", models.TierPremium, false)
	assert.Equal(t, models.SearchUnavailable, out.Status)
	assert.Nil(t, out.Context())
}

func TestSearchContextCachedByQueryHash(t *testing.T) {
	search := &fakeSearch{results: []models.SearchResult{{Title: "hit"}}}
	o := NewDataOrchestrator(&fakeEcon{}, nil, search, nil, nil, testLogger(t))

	o.GetSearchContext(context.Background(), "mortgage rates", models.TierPremium, false)
	o.GetSearchContext(context.Background(), "mortgage rates", models.TierPremium, false)
	assert.Len(t, search.callTimes(), 1, "repeat query must be served from cache")

	o.GetSearchContext(context.Background(), "treasury yields", models.TierPremium, false)
	assert.Len(t, search.callTimes(), 2)
}

func TestSearchContextEmptyResults(t *testing.T) {
	search := &fakeSearch{}
	o := NewDataOrchestrator(&fakeEcon{}, nil, search, nil, nil, testLogger(t))

	out := o.GetSearchContext(context.Background(), "obscure topic", models.TierPremium, false)
	require.Equal(t, models.SearchOK, out.Status)
	assert.Equal(t, `No recent information found for "obscure topic".`, out.Context().Summary)
}

func TestSearchCallsSerialized(t *testing.T) {
	const interval = 40 * time.Millisecond
	limits := ratelimit.NewProviderLimiter(interval, 60)
	search := &fakeSearch{results: []models.SearchResult{{Title: "hit"}}}
	o := NewDataOrchestrator(&fakeEcon{}, nil, search, limits, nil, testLogger(t))

	queries := []string{"one", "two", "three"}
	done := make(chan struct{}, len(queries))
	for _, q := range queries {
		go func(q string) {
			o.GetSearchContext(context.Background(), q, models.TierPremium, false)
			done <- struct{}{}
		}(q)
	}
	for range queries {
		<-done
	}

	times := search.callTimes()
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-5*time.Millisecond)
	}
}

func TestInvalidateCache(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	search := &fakeSearch{results: []models.SearchResult{{Title: "hit"}}}
	o := NewDataOrchestrator(econ, nil, search, nil, nil, testLogger(t))

	_, _ = o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	_, _ = o.GetMarketContextSummary(context.Background(), models.TierPremium, false)
	o.GetSearchContext(context.Background(), "cd rates", models.TierPremium, false)

	removed := o.InvalidateCache("market_context")
	assert.Equal(t, 2, removed)
	assert.Len(t, o.GetCacheStats().Keys, 1, "search entry survives a market-only invalidation")

	// refetch after invalidation hits the provider again
	_, _ = o.GetMarketContextSummary(context.Background(), models.TierStandard, false)
	assert.Equal(t, 3, econ.callCount())

	removed = o.InvalidateCache("")
	assert.Equal(t, 2, removed, "empty pattern clears everything")
	assert.Empty(t, o.GetCacheStats().Keys)
}

func TestForceRefreshAllContext(t *testing.T) {
	econ := &fakeEcon{snap: indicatorSnapshot(5.25, 3.1, 6.8, 21.5)}
	live := &fakeLive{snap: liveSnapshot(5.1)}
	o := NewDataOrchestrator(econ, live, nil, nil, nil, testLogger(t))

	o.ForceRefreshAllContext(context.Background())

	stats := o.GetCacheStats()
	assert.Equal(t, 6, stats.MarketContextCache.Size, "three tiers times two demo modes")
	assert.False(t, stats.MarketContextCache.LastRefresh.IsZero())

	// starter entries exist but never cost a provider call
	assert.Equal(t, 4, econ.callCount(), "standard and premium, live and demo")
}

func TestInvalidTierRejected(t *testing.T) {
	o := NewDataOrchestrator(&fakeEcon{}, nil, nil, nil, nil, testLogger(t))
	_, err := o.GetMarketContextSummary(context.Background(), models.Tier("gold"), false)
	assert.Error(t, err)
}
