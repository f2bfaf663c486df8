package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"MarketBrief/internal/service/fred"
)

func TestScoreEconomicIndicator(t *testing.T) {
	tests := []struct {
		name   string
		series string
		value  float64
		want   float64
	}{
		{"fed below threshold keeps headline base", fred.SeriesFedFunds, 4.5, 0.8},
		{"fed at threshold is not boosted", fred.SeriesFedFunds, 5.0, 0.8},
		{"fed above threshold maxes out", fred.SeriesFedFunds, 5.25, 1.0},
		{"cpi index below threshold", fred.SeriesCPI, 290, 0.8},
		{"cpi index above threshold", fred.SeriesCPI, 310.5, 0.9},
		{"mortgage above threshold", fred.SeriesMortgage30, 7.1, 0.9},
		{"mortgage below threshold", fred.SeriesMortgage30, 6.9, 0.8},
		{"non-headline series base", fred.SeriesCardAPR, 21.5, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreEconomicIndicator(tt.series, tt.value), 1e-9)
		})
	}
}

func TestScoreNewsArticle(t *testing.T) {
	// 11 keywords total; "fed" and "rate" and "market" and "interest" present
	score := scoreNewsArticle("Fed signals interest rate pause", "market reaction muted", "")
	assert.InDelta(t, 4.0/11.0*0.7, score, 1e-9)

	// query-in-title bonus
	withBonus := scoreNewsArticle("federal reserve interest rates market news roundup", "", "federal reserve interest rates market news")
	without := scoreNewsArticle("federal reserve interest rates market news roundup", "", "")
	assert.InDelta(t, 0.3, withBonus-without, 1e-9)

	// never exceeds 1.0
	full := scoreNewsArticle(
		"earnings revenue profit loss market economy inflation interest rate fed trading",
		"earnings revenue profit loss market economy inflation interest rate fed trading",
		"earnings revenue profit loss market economy inflation interest rate fed trading",
	)
	assert.LessOrEqual(t, full, 1.0)

	assert.Zero(t, scoreNewsArticle("weather tomorrow", "sunny skies", ""))
}

func TestScoreMarketData(t *testing.T) {
	assert.InDelta(t, 0.25, scoreMarketData(2.5), 1e-9)
	assert.InDelta(t, 0.25, scoreMarketData(-2.5), 1e-9)
	assert.InDelta(t, 1.0, scoreMarketData(15), 1e-9)
	assert.Zero(t, scoreMarketData(0))
}

func TestScoreRateInformation(t *testing.T) {
	assert.InDelta(t, 0.6, scoreRateInformation(4.8), 1e-9)
	assert.InDelta(t, 0.6, scoreRateInformation(5.0), 1e-9)
	assert.InDelta(t, 0.9, scoreRateInformation(5.01), 1e-9)
}
