package market

import (
	"sync"
)

// Stock pairs an immutable Instrument with its mutable live state.
//
// Writes happen only on the universe's serial queue (single-writer
// discipline); readers take the lock and tolerate eventually-consistent
// snapshots.
type Stock struct {
	Instrument Instrument

	// Alias is a display nickname from the static lookup table.
	Alias string

	mu sync.RWMutex

	minuteCandles []Candle
	dayCandles    []Candle

	info      *InstrumentInfo
	orderbook *OrderbookSnapshot

	closePrice *ClosePrice
	report     *Report
	short      *ShortInterest
	indices    []string
	priceSteps *PriceSteps
	morning    []byte // raw morning-movers payload, schema unknown
}

// NewStock wraps an instrument with empty live state.
func NewStock(instrument Instrument) *Stock {
	return &Stock{Instrument: instrument}
}

// FIGI is a shorthand for the instrument identifier.
func (s *Stock) FIGI() string { return s.Instrument.FIGI }

// Ticker is a shorthand for the instrument symbol.
func (s *Stock) Ticker() string { return s.Instrument.Ticker }

// ApplyCandle appends a candle to the matching interval history.
func (s *Stock) ApplyCandle(c Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch c.Interval {
	case IntervalMinute:
		s.minuteCandles = append(s.minuteCandles, c)
	case IntervalDay:
		s.dayCandles = append(s.dayCandles, c)
	}
}

// ApplyInfo replaces the instrument info. Last write wins, no history kept.
func (s *Stock) ApplyInfo(info InstrumentInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
}

// ApplyOrderbook replaces the latest orderbook snapshot.
func (s *Stock) ApplyOrderbook(ob OrderbookSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderbook = &ob
}

// ApplyClosePrice merges the reference close prices.
func (s *Stock) ApplyClosePrice(cp ClosePrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePrice = &cp
}

// ApplyReport merges the fundamental report dates.
func (s *Stock) ApplyReport(r Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &r
}

// ApplyShortInterest merges the short-interest stats.
func (s *Stock) ApplyShortInterest(si ShortInterest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.short = &si
}

// ApplyIndices replaces the index membership list.
func (s *Stock) ApplyIndices(indices []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices = indices
}

// ApplyPriceSteps merges the intraday price-step reference data.
func (s *Stock) ApplyPriceSteps(ps PriceSteps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceSteps = &ps
}

// ApplyMorning stores the raw morning-movers payload for this ticker.
func (s *Stock) ApplyMorning(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morning = raw
}

// Info returns the latest instrument info, or false when none arrived yet.
func (s *Stock) Info() (InstrumentInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return InstrumentInfo{}, false
	}
	return *s.info, true
}

// Orderbook returns the latest snapshot, or false when none arrived yet.
func (s *Stock) Orderbook() (OrderbookSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.orderbook == nil {
		return OrderbookSnapshot{}, false
	}
	return *s.orderbook, true
}

// LastMinuteCandle returns the newest minute candle, or false when empty.
func (s *Stock) LastMinuteCandle() (Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.minuteCandles) == 0 {
		return Candle{}, false
	}
	return s.minuteCandles[len(s.minuteCandles)-1], true
}

// DayCandleCount reports how many day candles were received.
func (s *Stock) DayCandleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dayCandles)
}

// PriceNow is the freshest known price: last minute close, then last day
// close, then yesterday's close, then zero.
func (s *Stock) PriceNow() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n := len(s.minuteCandles); n > 0 {
		return s.minuteCandles[n-1].Close
	}
	if n := len(s.dayCandles); n > 0 {
		return s.dayCandles[n-1].Close
	}
	if s.closePrice != nil {
		return s.closePrice.Price
	}
	return 0
}

// PriceChangePercent is the percent change of the current price against
// yesterday's close. Zero when either side is unknown.
func (s *Stock) PriceChangePercent() float64 {
	price := s.PriceNow()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if price == 0 || s.closePrice == nil || s.closePrice.Price == 0 {
		return 0
	}
	return (price - s.closePrice.Price) / s.closePrice.Price * 100.0
}
