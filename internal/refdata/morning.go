package refdata

import (
	"context"
	"encoding/json"
)

// MorningMover is one entry of the morning-movers feed. The upstream schema
// is only partially known: the fields below are decoded when present and the
// full payload is kept as raw bytes for consumers that know more.
type MorningMover struct {
	Ticker        string  `json:"ticker"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`

	Raw json.RawMessage `json:"-"`
}

// MorningMovers returns the pre-market movers keyed by ticker.
func (c *Client) MorningMovers(ctx context.Context) (map[string]MorningMover, error) {
	raw := make(map[string]json.RawMessage)
	if err := c.getJSON(ctx, "/morning", &raw); err != nil {
		return nil, err
	}

	out := make(map[string]MorningMover, len(raw))
	for ticker, blob := range raw {
		mover := MorningMover{Ticker: ticker, Raw: blob}
		// Best-effort decode of the known fields; an unexpected shape still
		// yields the raw blob.
		if err := json.Unmarshal(blob, &mover); err != nil {
			c.logger.Debugf("morning payload for %s has unknown shape", ticker)
		}
		mover.Ticker = ticker
		mover.Raw = blob
		out[ticker] = mover
	}
	return out, nil
}
