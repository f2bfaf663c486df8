package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	xhttp "MarketBrief/pkg/http"
)

// Client implements SearchSource backed by the Brave web search API.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates a search source.
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

type braveResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

// Search runs one web search and normalizes the hits. The caller owns rate
// limiting; this client performs a single request per call.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	var resp braveResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/res/v1/web/search",
		Headers: map[string]string{
			"Accept":               "application/json",
			"X-Subscription-Token": c.apiKey,
		},
		QueryParams: map[string][]string{
			"q":     {query},
			"count": {strconv.Itoa(limit)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	results := make([]models.SearchResult, 0, len(resp.Web.Results))
	for i, r := range resp.Web.Results {
		if i >= limit {
			break
		}
		results = append(results, models.SearchResult{
			Title:     r.Title,
			Snippet:   r.Description,
			URL:       r.URL,
			Source:    models.SourceBraveSearch,
			Relevance: 1 - float64(i)*0.1,
		})
	}
	return results, nil
}

var _ drepo.SearchSource = (*Client)(nil)
