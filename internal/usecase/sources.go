package usecase

import (
	"context"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/fred"
)

// Source priorities: lower runs first.
const (
	PriorityPolygon      = 1
	PriorityFRED         = 2
	PrioritySearch       = 3
	PriorityAlphaVantage = 4
)

// FREDSource adapts the economic data client to the aggregation cycle.
type FREDSource struct {
	Client drepo.EconomicDataSource
}

func (s *FREDSource) Name() string  { return models.SourceFRED }
func (s *FREDSource) Priority() int { return PriorityFRED }
func (s *FREDSource) Enabled() bool { return s.Client != nil }

func (s *FREDSource) Fetch(ctx context.Context) ([]models.MarketNewsDatum, error) {
	ind, err := s.Client.Indicators(ctx, false)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	mk := func(series string, p models.IndicatorPoint) models.MarketNewsDatum {
		return models.MarketNewsDatum{
			Source:    models.SourceFRED,
			Timestamp: now,
			Type:      models.DatumEconomicIndicator,
			Relevance: scoreEconomicIndicator(series, p.Value),
			Economic: &models.EconomicIndicatorRecord{
				Series:          series,
				Value:           p.Value,
				ObservationDate: p.ObservationDate,
			},
		}
	}
	return []models.MarketNewsDatum{
		mk(fred.SeriesCPI, ind.CPIIndex),
		mk(fred.SeriesFedFunds, ind.FedRate),
		mk(fred.SeriesMortgage30, ind.MortgageRate),
		mk(fred.SeriesCardAPR, ind.CreditCardAPR),
	}, nil
}

// MarketMoverLister is the slice of the polygon client the aggregator needs.
type MarketMoverLister interface {
	MarketMovers(ctx context.Context) ([]models.MarketDataRecord, error)
}

// PolygonSource contributes premium market-move data.
type PolygonSource struct {
	Client MarketMoverLister
	On     bool
}

func (s *PolygonSource) Name() string  { return models.SourcePolygon }
func (s *PolygonSource) Priority() int { return PriorityPolygon }
func (s *PolygonSource) Enabled() bool { return s.On && s.Client != nil }

func (s *PolygonSource) Fetch(ctx context.Context) ([]models.MarketNewsDatum, error) {
	movers, err := s.Client.MarketMovers(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]models.MarketNewsDatum, 0, len(movers))
	for i := range movers {
		m := movers[i]
		out = append(out, models.MarketNewsDatum{
			Source:    models.SourcePolygon,
			Timestamp: now,
			Type:      models.DatumMarketData,
			Relevance: scoreMarketData(m.PercentChange),
			Market:    &m,
		})
	}
	return out, nil
}

// SearchQuery is the fixed query used for the news sweep each cycle.
const SearchQuery = "federal reserve interest rates market news"

// SearchNewsSource contributes recent article hits.
type SearchNewsSource struct {
	Client drepo.SearchSource
	On     bool
	Limit  int
}

func (s *SearchNewsSource) Name() string  { return models.SourceBraveSearch }
func (s *SearchNewsSource) Priority() int { return PrioritySearch }
func (s *SearchNewsSource) Enabled() bool { return s.On && s.Client != nil }

func (s *SearchNewsSource) Fetch(ctx context.Context) ([]models.MarketNewsDatum, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 5
	}
	hits, err := s.Client.Search(ctx, SearchQuery, limit)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]models.MarketNewsDatum, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.MarketNewsDatum{
			Source:    models.SourceBraveSearch,
			Timestamp: now,
			Type:      models.DatumNewsArticle,
			Relevance: scoreNewsArticle(h.Title, h.Snippet, SearchQuery),
			News: &models.NewsRecord{
				Title:   h.Title,
				Snippet: h.Snippet,
				URL:     h.URL,
				Query:   SearchQuery,
			},
		})
	}
	return out, nil
}

// AlphaVantageSource is the disabled-by-default fallback rate source.
type AlphaVantageSource struct {
	Client drepo.LiveMarketDataSource
	On     bool
}

func (s *AlphaVantageSource) Name() string  { return models.SourceAlphaVantage }
func (s *AlphaVantageSource) Priority() int { return PriorityAlphaVantage }
func (s *AlphaVantageSource) Enabled() bool { return s.On && s.Client != nil }

func (s *AlphaVantageSource) Fetch(ctx context.Context) ([]models.MarketNewsDatum, error) {
	snap, err := s.Client.LiveMarketData(ctx, false)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []models.MarketNewsDatum
	for _, y := range snap.TreasuryYields {
		out = append(out, models.MarketNewsDatum{
			Source:    models.SourceAlphaVantage,
			Timestamp: now,
			Type:      models.DatumRateInformation,
			Relevance: scoreRateInformation(y.Yield),
			Rate: &models.RateRecord{
				Category: "treasury",
				Term:     y.Maturity,
				Rate:     y.Yield,
			},
		})
	}
	return out, nil
}
