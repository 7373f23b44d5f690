// Package market defines the domain model: instruments, candles, limit
// bands, orderbook snapshots and the per-instrument live state.
package market

import "time"

// Interval identifies a candle aggregation interval on the wire.
type Interval string

const (
	IntervalMinute Interval = "1min"
	IntervalDay    Interval = "day"
)

// Instrument is the immutable identity of a tradable security.
// Created once at universe load; only the associated Stock live state mutates.
type Instrument struct {
	FIGI              string  `json:"figi"`
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	Currency          string  `json:"currency"`
	MinPriceIncrement float64 `json:"minPriceIncrement"`
	Lot               int     `json:"lot"`
}

// Candle is one OHLCV aggregate for one instrument and interval.
// Immutable once decoded.
type Candle struct {
	FIGI     string    `json:"figi"`
	Interval Interval  `json:"interval"`
	Open     float64   `json:"o"`
	Close    float64   `json:"c"`
	High     float64   `json:"h"`
	Low      float64   `json:"l"`
	Volume   float64   `json:"v"`
	Time     time.Time `json:"time"`
}

// InstrumentInfo carries the current trading-limit band and halt status.
// Last-write-wins per instrument; limits (0, 0) mean the band is unknown.
type InstrumentInfo struct {
	FIGI        string  `json:"figi"`
	TradeStatus string  `json:"trade_status"`
	LimitUp     float64 `json:"limit_up"`
	LimitDown   float64 `json:"limit_down"`
}

// LimitsKnown reports whether the exchange has established the band.
func (i InstrumentInfo) LimitsKnown() bool {
	return i.LimitUp != 0 || i.LimitDown != 0
}

// PriceLevel is one price/quantity pair of an orderbook side.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderbookSnapshot replaces the prior snapshot per instrument and depth.
type OrderbookSnapshot struct {
	FIGI  string       `json:"figi"`
	Depth int          `json:"depth"`
	Bids  []PriceLevel `json:"bids"`
	Asks  []PriceLevel `json:"asks"`
}

// ClosePrice is yesterday's close and the post-market close for one ticker.
type ClosePrice struct {
	Price          float64 `json:"yahoo"`
	PostMarket     float64 `json:"post_market"`
	OpenSessionEnd float64 `json:"os"`
}

// Report holds upcoming fundamental report and dividend dates.
type Report struct {
	ReportDate   string `json:"date_format"`
	ReportTime   string `json:"time"`
	Actual       bool   `json:"is_actual"`
	DividendDate string `json:"dividend_date,omitempty"`
}

// ShortInterest is short-volume statistics for one ticker.
type ShortInterest struct {
	Ticker          string  `json:"ticker"`
	ShortVolume     float64 `json:"short_volume"`
	TotalVolume     float64 `json:"total_volume"`
	PercentOfFloat  float64 `json:"percent_of_float"`
	DaysToCover     float64 `json:"days_to_cover"`
	AverageVolume30 float64 `json:"avg_volume_30d"`
}

// Index is one market index quote from the reference-data feed.
type Index struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	ChangePercent float64 `json:"change_percent"`
}

// PriceSteps carries intraday reference prices keyed by time of day.
type PriceSteps struct {
	From   float64            `json:"from"`
	Prices map[string]float64 `json:"prices"`
}

// LimitClass classifies a price against the instrument's limit band.
type LimitClass string

const (
	LimitNone       LimitClass = "NONE"
	LimitOnUpper    LimitClass = "ON_UPPER"
	LimitOnLower    LimitClass = "ON_LOWER"
	LimitAboveUpper LimitClass = "ABOVE_UPPER"
	LimitBelowLower LimitClass = "BELOW_LOWER"
	LimitNearUpper  LimitClass = "NEAR_UPPER"
	LimitNearLower  LimitClass = "NEAR_LOWER"
)

// UpperBand reports whether the classification belongs to the upper band.
func (c LimitClass) UpperBand() bool {
	return c == LimitOnUpper || c == LimitAboveUpper || c == LimitNearUpper
}

// LimitAlert is one fired limit signal. Immutable once created; alerts are
// prepended to the relevant band log, giving most-recent-first ordering.
type LimitAlert struct {
	FIGI    string     `json:"figi"`
	Ticker  string     `json:"ticker"`
	Class   LimitClass `json:"class"`
	Percent float64    `json:"percent"`
	Price   float64    `json:"price"`
	FiredAt time.Time  `json:"fired_at"`
}
