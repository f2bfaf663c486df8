package polygon

import (
	"context"
	"fmt"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	xhttp "MarketBrief/pkg/http"
)

// Client implements LiveMarketDataSource backed by the Polygon-style rates
// API. When a Stream is attached, a REST failure degrades to the last
// streamed snapshot instead of erroring.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	stream  *Stream
}

// New creates a Polygon live market data source.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// AttachStream wires a live-rate stream used as a fallback snapshot source.
func (c *Client) AttachStream(s *Stream) { c.stream = s }

// Stream returns the attached live-rate stream, nil when none is configured.
func (c *Client) Stream() *Stream { return c.stream }

type rateEntry struct {
	Term        string  `json:"term"`
	Rate        float64 `json:"rate"`
	Institution string  `json:"institution"`
}

type yieldEntry struct {
	Maturity string  `json:"maturity"`
	Yield    float64 `json:"yield"`
}

type mortgageEntry struct {
	Type string  `json:"type"`
	Rate float64 `json:"rate"`
}

type ratesResponse struct {
	Status         string          `json:"status"`
	CDRates        []rateEntry     `json:"cd_rates"`
	TreasuryYields []yieldEntry    `json:"treasury_yields"`
	MortgageRates  []mortgageEntry `json:"mortgage_rates"`
}

// LiveMarketData fetches the current rate snapshot. Demo mode targets the
// provider's sandbox dataset via a query flag; the shape is identical.
func (c *Client) LiveMarketData(ctx context.Context, demo bool) (*models.LiveMarketData, error) {
	var resp ratesResponse
	params := map[string][]string{"apiKey": {c.apiKey}}
	if demo {
		params["sandbox"] = []string{"true"}
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v1/reference/rates",
		QueryParams: params,
	}, &resp)
	if err != nil {
		if c.stream != nil {
			if snap := c.stream.Snapshot(); snap != nil {
				return snap, nil
			}
		}
		return nil, fmt.Errorf("polygon rates: %w", err)
	}
	if len(resp.CDRates) == 0 && len(resp.TreasuryYields) == 0 && len(resp.MortgageRates) == 0 {
		return nil, fmt.Errorf("polygon rates: empty snapshot")
	}
	return toSnapshot(&resp, time.Now()), nil
}

type snapshotEntry struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	PercentChange float64 `json:"todaysChangePerc"`
}

type marketSnapshotResponse struct {
	Tickers []snapshotEntry `json:"tickers"`
}

// MarketMovers returns today's price moves for the aggregation cycle.
func (c *Client) MarketMovers(ctx context.Context) ([]models.MarketDataRecord, error) {
	var resp marketSnapshotResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v2/snapshot/locale/us/markets/stocks/tickers",
		QueryParams: map[string][]string{"apiKey": {c.apiKey}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("polygon snapshot: %w", err)
	}
	records := make([]models.MarketDataRecord, 0, len(resp.Tickers))
	for _, t := range resp.Tickers {
		records = append(records, models.MarketDataRecord{
			Symbol:        t.Ticker,
			Price:         t.Price,
			PercentChange: t.PercentChange,
		})
	}
	return records, nil
}

func toSnapshot(r *ratesResponse, now time.Time) *models.LiveMarketData {
	snap := &models.LiveMarketData{}
	for _, cd := range r.CDRates {
		snap.CDRates = append(snap.CDRates, models.CDRate{
			Term: cd.Term, Rate: cd.Rate, Institution: cd.Institution, LastUpdated: now,
		})
	}
	for _, ty := range r.TreasuryYields {
		snap.TreasuryYields = append(snap.TreasuryYields, models.TreasuryYield{
			Maturity: ty.Maturity, Yield: ty.Yield, LastUpdated: now,
		})
	}
	for _, m := range r.MortgageRates {
		snap.MortgageRates = append(snap.MortgageRates, models.MortgageRate{
			Type: m.Type, Rate: m.Rate, LastUpdated: now,
		})
	}
	return snap
}

var _ drepo.LiveMarketDataSource = (*Client)(nil)
