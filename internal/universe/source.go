package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bandwatch/configs"
	"bandwatch/internal/market"
)

// InstrumentSource fetches the full tradable instrument list.
type InstrumentSource interface {
	Instruments(ctx context.Context) ([]market.Instrument, error)
}

// HTTPInstrumentSource pulls the instrument list from the market REST API.
type HTTPInstrumentSource struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPInstrumentSource creates a source for the configured endpoint.
func NewHTTPInstrumentSource(cfg configs.MarketConfig) *HTTPInstrumentSource {
	return &HTTPInstrumentSource{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPInstrumentSource) Instruments(ctx context.Context) ([]market.Instrument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/market/stocks", nil)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch instruments: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Payload struct {
			Instruments []market.Instrument `json:"instruments"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode instruments: %w", err)
	}
	if len(body.Payload.Instruments) == 0 {
		return nil, fmt.Errorf("instrument list is empty")
	}
	return body.Payload.Instruments, nil
}
