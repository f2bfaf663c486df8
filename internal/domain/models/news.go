package models

import "time"

// Data source identifiers as they appear in aggregated data and provenance.
const (
	SourceFRED         = "fred"
	SourceAlphaVantage = "alpha_vantage"
	SourcePolygon      = "polygon"
	SourceBraveSearch  = "brave_search"
)

// DatumType discriminates the payload carried by a MarketNewsDatum.
type DatumType string

const (
	DatumEconomicIndicator DatumType = "economic_indicator"
	DatumMarketData        DatumType = "market_data"
	DatumNewsArticle       DatumType = "news_article"
	DatumRateInformation   DatumType = "rate_information"
)

// EconomicIndicatorRecord is a single observed series value. CPI carries the
// raw index level here, not a YoY percentage.
type EconomicIndicatorRecord struct {
	Series          string
	Value           float64
	ObservationDate string
}

// MarketDataRecord is a price move for one instrument.
type MarketDataRecord struct {
	Symbol        string
	Price         float64
	PercentChange float64
}

// NewsRecord is one article hit from a search provider.
type NewsRecord struct {
	Title   string
	Snippet string
	URL     string
	Query   string
}

// RateRecord is one published rate offer.
type RateRecord struct {
	Category string // "cd", "treasury", "mortgage"
	Term     string
	Rate     float64
}

// MarketNewsDatum is one normalized unit of aggregated market data, tagged
// with its origin and a deterministic [0,1] relevance score. Exactly one
// payload pointer is set, matching Type.
type MarketNewsDatum struct {
	Source    string
	Timestamp time.Time
	Type      DatumType
	Relevance float64

	Economic *EconomicIndicatorRecord
	Market   *MarketDataRecord
	News     *NewsRecord
	Rate     *RateRecord
}

// SearchResult is one normalized web search hit.
type SearchResult struct {
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	URL       string  `json:"url"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

// SearchContext wraps search results with a ready-to-inject summary string.
type SearchContext struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Summary string         `json:"summary"`
}

// SearchStatus distinguishes why a search context may be absent.
type SearchStatus string

const (
	SearchOK          SearchStatus = "ok"
	SearchDenied      SearchStatus = "denied"      // tier has no search capability
	SearchUnavailable SearchStatus = "unavailable" // provider failed this cycle
)

// SearchOutcome is the rich result variant for search-context lookups.
// External callers treat Denied and Unavailable uniformly as "no context";
// Context() maps both to nil.
type SearchOutcome struct {
	Status SearchStatus
	Result *SearchContext
}

// Context returns the search context, or nil when the outcome carries none.
func (o SearchOutcome) Context() *SearchContext {
	if o.Status != SearchOK {
		return nil
	}
	return o.Result
}
