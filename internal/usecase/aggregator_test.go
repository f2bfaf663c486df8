package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/fred"
	"MarketBrief/internal/service/ratelimit"
)

func TestAggregateMarketDataMergesAndSorts(t *testing.T) {
	low := newsDatum("weather tomorrow") // zero relevance
	high := econDatum(fred.SeriesFedFunds, 5.25)
	mid := marketDatum("AAPL", 5) // 0.5

	agg := NewNewsAggregator([]drepo.NewsSource{
		&fakeSource{name: models.SourceBraveSearch, priority: PrioritySearch, enabled: true, data: []models.MarketNewsDatum{low}},
		&fakeSource{name: models.SourcePolygon, priority: PriorityPolygon, enabled: true, data: []models.MarketNewsDatum{mid}},
		&fakeSource{name: models.SourceFRED, priority: PriorityFRED, enabled: true, data: []models.MarketNewsDatum{high}},
	}, nil, nil, testLogger(t))

	out := agg.AggregateMarketData(context.Background())
	require.Len(t, out, 3)
	assert.Equal(t, models.SourceFRED, out[0].Source)
	assert.Equal(t, models.SourcePolygon, out[1].Source)
	assert.Equal(t, models.SourceBraveSearch, out[2].Source)
}

func TestAggregateMarketDataIsolatesFailures(t *testing.T) {
	good := &fakeSource{name: models.SourceFRED, priority: PriorityFRED, enabled: true,
		data: []models.MarketNewsDatum{econDatum(fred.SeriesCPI, 310)}}
	bad := &fakeSource{name: models.SourcePolygon, priority: PriorityPolygon, enabled: true,
		err: errors.New("upstream 500")}

	agg := NewNewsAggregator([]drepo.NewsSource{bad, good}, nil, nil, testLogger(t))
	out := agg.AggregateMarketData(context.Background())

	require.Len(t, out, 1)
	assert.Equal(t, models.SourceFRED, out[0].Source)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestAggregateMarketDataSkipsDisabled(t *testing.T) {
	off := &fakeSource{name: models.SourceAlphaVantage, priority: PriorityAlphaVantage, enabled: false,
		data: []models.MarketNewsDatum{rateDatum("10year", 4.4)}}

	agg := NewNewsAggregator([]drepo.NewsSource{off}, nil, nil, testLogger(t))
	out := agg.AggregateMarketData(context.Background())

	assert.Empty(t, out)
	assert.Zero(t, off.calls)
}

func TestAggregateMarketDataAllFailuresYieldEmpty(t *testing.T) {
	agg := NewNewsAggregator([]drepo.NewsSource{
		&fakeSource{name: models.SourceFRED, priority: PriorityFRED, enabled: true, err: errors.New("down")},
		&fakeSource{name: models.SourceBraveSearch, priority: PrioritySearch, enabled: true, err: errors.New("down")},
	}, nil, nil, testLogger(t))

	out := agg.AggregateMarketData(context.Background())
	assert.Empty(t, out)
}

func TestAggregateTiesBreakByRecency(t *testing.T) {
	older := econDatum(fred.SeriesFedFunds, 5.25)
	older.Timestamp = time.Now().Add(-time.Hour)
	newer := econDatum(fred.SeriesFedFunds, 5.5)

	agg := NewNewsAggregator([]drepo.NewsSource{
		&fakeSource{name: models.SourceFRED, priority: PriorityFRED, enabled: true,
			data: []models.MarketNewsDatum{older, newer}},
	}, nil, nil, testLogger(t))

	out := agg.AggregateMarketData(context.Background())
	require.Len(t, out, 2)
	assert.True(t, out[0].Timestamp.After(out[1].Timestamp))
}

func TestAggregatorThrottlesSearchCalls(t *testing.T) {
	const interval = 50 * time.Millisecond
	limits := ratelimit.NewProviderLimiter(interval, 60)

	src := &fakeSource{name: models.SourceBraveSearch, priority: PrioritySearch, enabled: true,
		data: []models.MarketNewsDatum{newsDatum("fed rate news")}}
	agg := NewNewsAggregator([]drepo.NewsSource{src}, limits, nil, testLogger(t))

	for i := 0; i < 3; i++ {
		agg.AggregateMarketData(context.Background())
	}
	require.Len(t, src.callAt, 3)
	for i := 1; i < len(src.callAt); i++ {
		gap := src.callAt[i].Sub(src.callAt[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "call %d too close", i)
	}
}
