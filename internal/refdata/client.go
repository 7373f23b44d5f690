// Package refdata pulls auxiliary reference data (close prices, reports,
// short interest, indices, price steps, morning movers) from the third-party
// data service. Every endpoint is independently optional: a failure degrades
// the dependent fields, never the pipeline.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"bandwatch/internal/market"
)

const requestTimeout = 30 * time.Second

// Client is a rate-limited HTTP client for the reference-data endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a client pacing requests at requestsPerSecond.
func NewClient(baseURL string, requestsPerSecond float64, logger *logrus.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
	}
}

// getJSON fetches one endpoint and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ClosePrices returns yesterday's close prices keyed by ticker.
func (c *Client) ClosePrices(ctx context.Context) (map[string]market.ClosePrice, error) {
	out := make(map[string]market.ClosePrice)
	if err := c.getJSON(ctx, "/close-prices", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reports returns fundamental report and dividend dates keyed by ticker.
func (c *Client) Reports(ctx context.Context) (map[string]market.Report, error) {
	out := make(map[string]market.Report)
	if err := c.getJSON(ctx, "/reports", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShortInterest returns short-volume statistics keyed by ticker.
func (c *Client) ShortInterest(ctx context.Context) (map[string]market.ShortInterest, error) {
	out := make(map[string]market.ShortInterest)
	if err := c.getJSON(ctx, "/shorts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indices returns the current market index quotes.
func (c *Client) Indices(ctx context.Context) ([]market.Index, error) {
	var out []market.Index
	if err := c.getJSON(ctx, "/indices", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexMembership returns per-ticker index membership lists.
func (c *Client) IndexMembership(ctx context.Context) (map[string][]string, error) {
	var out struct {
		Data map[string][]string `json:"data"`
	}
	if err := c.getJSON(ctx, "/index-components", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PriceSteps returns intraday reference prices keyed by ticker.
func (c *Client) PriceSteps(ctx context.Context) (map[string]market.PriceSteps, error) {
	out := make(map[string]market.PriceSteps)
	if err := c.getJSON(ctx, "/price-steps", &out); err != nil {
		return nil, err
	}
	return out, nil
}
