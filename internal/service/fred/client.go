package fred

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	xhttp "MarketBrief/pkg/http"
)

// Series identifiers pulled each cycle.
const (
	SeriesCPI        = "CPIAUCSL"
	SeriesFedFunds   = "FEDFUNDS"
	SeriesMortgage30 = "MORTGAGE30US"
	SeriesCardAPR    = "TERMCBCCALLNS"
)

// Client implements EconomicDataSource backed by the FRED observations API.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates a FRED economic data source.
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

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// Indicators fetches all headline series and returns a fully-populated
// snapshot, or an error if any required series is unavailable. FRED has no
// sandbox; demo mode shares the live series.
func (c *Client) Indicators(ctx context.Context, demo bool) (*models.EconomicIndicators, error) {
	now := time.Now()

	cpi, err := c.observations(ctx, SeriesCPI, 14)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", SeriesCPI, err)
	}
	yoy, idx, date, err := cpiYearOverYear(cpi)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", SeriesCPI, err)
	}

	fed, err := c.latest(ctx, SeriesFedFunds)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", SeriesFedFunds, err)
	}
	mort, err := c.latest(ctx, SeriesMortgage30)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", SeriesMortgage30, err)
	}
	apr, err := c.latest(ctx, SeriesCardAPR)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", SeriesCardAPR, err)
	}

	point := func(v float64, date string) models.IndicatorPoint {
		return models.IndicatorPoint{Value: v, ObservationDate: date, Source: models.SourceFRED, LastUpdated: now}
	}
	return &models.EconomicIndicators{
		CPIYoY:        point(yoy, date),
		CPIIndex:      point(idx, date),
		FedRate:       point(fed.value, fed.date),
		MortgageRate:  point(mort.value, mort.date),
		CreditCardAPR: point(apr.value, apr.date),
	}, nil
}

type parsedObservation struct {
	value float64
	date  string
}

// latest returns the newest parseable observation for a series.
func (c *Client) latest(ctx context.Context, series string) (parsedObservation, error) {
	obs, err := c.observations(ctx, series, 5)
	if err != nil {
		return parsedObservation{}, err
	}
	for _, o := range obs {
		// FRED publishes "." for missing values; skip them.
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		return parsedObservation{value: v, date: o.Date}, nil
	}
	return parsedObservation{}, fmt.Errorf("no usable observation")
}

func (c *Client) observations(ctx context.Context, series string, limit int) ([]observation, error) {
	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/fred/series/observations",
		QueryParams: map[string][]string{
			"series_id":  {series},
			"api_key":    {c.apiKey},
			"file_type":  {"json"},
			"sort_order": {"desc"},
			"limit":      {strconv.Itoa(limit)},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Observations) == 0 {
		return nil, fmt.Errorf("empty observations")
	}
	return resp.Observations, nil
}

// cpiYearOverYear derives the YoY percentage from monthly index observations
// sorted newest first. Returns (yoy, latest index level, observation date).
func cpiYearOverYear(obs []observation) (float64, float64, string, error) {
	vals := make([]parsedObservation, 0, len(obs))
	for _, o := range obs {
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		vals = append(vals, parsedObservation{value: v, date: o.Date})
	}
	if len(vals) < 13 {
		return 0, 0, "", fmt.Errorf("need 13 monthly observations, got %d", len(vals))
	}
	latest, yearAgo := vals[0], vals[12]
	if yearAgo.value == 0 {
		return 0, 0, "", fmt.Errorf("zero base index")
	}
	yoy := (latest.value - yearAgo.value) / yearAgo.value * 100
	// one decimal, matching published YoY figures
	yoy = math.Round(yoy*10) / 10
	return yoy, latest.value, latest.date, nil
}

var _ drepo.EconomicDataSource = (*Client)(nil)
