package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/service/fred"
)

func mixedSourceData() []models.MarketNewsDatum {
	return []models.MarketNewsDatum{
		econDatum(fred.SeriesFedFunds, 5.25),
		marketDatum("AAPL", 3.2),
		newsDatum("Fed holds rates steady"),
		rateDatum("10year", 4.4),
	}
}

func TestFilterByTier(t *testing.T) {
	data := mixedSourceData()

	assert.Empty(t, FilterByTier(data, models.TierStarter))

	std := FilterByTier(data, models.TierStandard)
	require.Len(t, std, 2)
	for _, d := range std {
		assert.Contains(t, []string{models.SourceFRED, models.SourceBraveSearch}, d.Source)
	}

	assert.Len(t, FilterByTier(data, models.TierPremium), 4)
}

func TestDataSources(t *testing.T) {
	data := []models.MarketNewsDatum{
		econDatum(fred.SeriesFedFunds, 5.25),
		econDatum(fred.SeriesCPI, 310),
		newsDatum("markets rally"),
	}
	assert.Equal(t, []string{models.SourceFRED, models.SourceBraveSearch}, DataSources(data))

	// empty input yields an empty, non-nil slice
	got := DataSources(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractKeyEvents(t *testing.T) {
	data := []models.MarketNewsDatum{
		econDatum(fred.SeriesFedFunds, 5.5),
		econDatum(fred.SeriesCPI, 310.5),
		econDatum(fred.SeriesMortgage30, 7.25),
		econDatum(fred.SeriesCardAPR, 22.1),
		newsDatum("irrelevant for events"),
	}
	events := ExtractKeyEvents(data)
	require.Len(t, events, 3)
	assert.Equal(t, "Federal Reserve rate at 5.5% - high interest rate environment", events[0])
	assert.Equal(t, "Consumer Price Index at 310.5 - elevated inflation raising cost of living", events[1])
	assert.Equal(t, "30-year mortgage rate at 7.25% - high mortgage rates impacting housing market", events[2])
}

func TestExtractKeyEventsBoundaries(t *testing.T) {
	// thresholds are strict
	data := []models.MarketNewsDatum{
		econDatum(fred.SeriesFedFunds, 5.0),
		econDatum(fred.SeriesCPI, 300),
		econDatum(fred.SeriesMortgage30, 7.0),
	}
	events := ExtractKeyEvents(data)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestSynthesizeMarketContext(t *testing.T) {
	llm := &fakeLLM{text: "Markets were mixed today."}
	s := NewNewsSynthesizer(llm, nil, testLogger(t))

	row, err := s.SynthesizeMarketContext(context.Background(), mixedSourceData(), models.TierPremium)
	require.NoError(t, err)

	assert.Equal(t, models.TierPremium, row.Tier)
	assert.Equal(t, models.OriginAuto, row.Origin)
	assert.Equal(t, "Markets were mixed today.", row.ContextText)
	assert.Equal(t, []models.Tier{models.TierPremium}, row.AvailableTiers)
	assert.False(t, row.ManualOverride)
	assert.ElementsMatch(t,
		[]string{models.SourceFRED, models.SourcePolygon, models.SourceBraveSearch, models.SourceAlphaVantage},
		row.DataSources)
	assert.Contains(t, row.KeyEvents, "Federal Reserve rate at 5.25% - high interest rate environment")
	assert.NotEmpty(t, row.RawData)
	assert.Equal(t, 1, llm.callCount())
}

func TestSynthesizeMarketContextStarterSkipsLLM(t *testing.T) {
	llm := &fakeLLM{text: "should never appear"}
	s := NewNewsSynthesizer(llm, nil, testLogger(t))

	row, err := s.SynthesizeMarketContext(context.Background(), mixedSourceData(), models.TierStarter)
	require.NoError(t, err)

	assert.Equal(t, "No market news is available for this subscription tier.", row.ContextText)
	assert.Empty(t, row.DataSources)
	assert.Empty(t, row.KeyEvents)
	assert.Zero(t, llm.callCount())
}

func TestSynthesizeMarketContextLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model overloaded")}
	s := NewNewsSynthesizer(llm, nil, testLogger(t))

	row, err := s.SynthesizeMarketContext(context.Background(), mixedSourceData(), models.TierStandard)
	assert.Nil(t, row)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
}
