package alphavantage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	xhttp "MarketBrief/pkg/http"
)

// Client is the fallback LiveMarketDataSource backed by Alpha Vantage.
// Disabled by default; it only carries treasury yields, which is acceptable
// for a fallback snapshot (categories a provider lacks stay empty).
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates an Alpha Vantage data source.
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

type avPoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type avSeriesResponse struct {
	Data []avPoint `json:"data"`
}

var maturities = []string{"3month", "2year", "10year", "30year"}

// LiveMarketData fetches treasury yields per maturity. Any maturity that
// cannot be resolved fails the whole snapshot; the caller treats that as
// "unavailable this cycle".
func (c *Client) LiveMarketData(ctx context.Context, demo bool) (*models.LiveMarketData, error) {
	now := time.Now()
	snap := &models.LiveMarketData{}
	for _, m := range maturities {
		y, err := c.treasuryYield(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("alpha vantage %s: %w", m, err)
		}
		snap.TreasuryYields = append(snap.TreasuryYields, models.TreasuryYield{
			Maturity: m, Yield: y, LastUpdated: now,
		})
	}
	return snap, nil
}

func (c *Client) treasuryYield(ctx context.Context, maturity string) (float64, error) {
	var resp avSeriesResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/query",
		QueryParams: map[string][]string{
			"function": {"TREASURY_YIELD"},
			"interval": {"daily"},
			"maturity": {maturity},
			"apikey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	for _, p := range resp.Data {
		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			continue
		}
		return v, nil
	}
	return 0, fmt.Errorf("no usable data point")
}

var _ drepo.LiveMarketDataSource = (*Client)(nil)
