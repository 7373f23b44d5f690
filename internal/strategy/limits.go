package strategy

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
	"bandwatch/internal/notify"
	"bandwatch/utils"
)

const restartPause = 500 * time.Millisecond

// Universe is the slice of the universe manager the engine reads.
type Universe interface {
	Streamed() []*market.Stock
}

// Engine evaluates minute candles against each instrument's limit band.
// Evaluate runs on the universe's serial queue; the engine's own lock only
// protects concurrent readers of the alert logs and the eligible list.
type Engine struct {
	universe Universe
	notifier notify.Notifier
	logger   *logrus.Logger
	cfg      Config

	mu         sync.RWMutex
	started    bool
	stocks     []*market.Stock
	eligible   map[string]bool // by FIGI
	upAlerts   []market.LimitAlert
	downAlerts []market.LimitAlert
	descending bool
}

// NewEngine creates a stopped engine.
func NewEngine(universe Universe, notifier notify.Notifier, logger *logrus.Logger, cfg Config) *Engine {
	return &Engine{
		universe:   universe,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
		eligible:   make(map[string]bool),
		descending: true,
	}
}

// Started reports whether evaluation is running.
func (e *Engine) Started() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started
}

// Process recomputes the eligible instrument set: streamed instruments whose
// current price falls inside the configured range.
func (e *Engine) Process() []*market.Stock {
	all := e.universe.Streamed()

	stocks := make([]*market.Stock, 0, len(all))
	eligible := make(map[string]bool, len(all))
	for _, st := range all {
		price := st.PriceNow()
		if price > e.cfg.PriceMin && price < e.cfg.PriceMax {
			stocks = append(stocks, st)
			eligible[st.FIGI()] = true
		}
	}

	e.mu.Lock()
	e.stocks = stocks
	e.eligible = eligible
	e.mu.Unlock()
	return stocks
}

// Start clears both alert logs, recomputes eligibility and enables
// evaluation.
func (e *Engine) Start() {
	e.mu.Lock()
	e.upAlerts = nil
	e.downAlerts = nil
	e.mu.Unlock()

	e.Process()

	e.mu.Lock()
	e.started = true
	e.mu.Unlock()

	e.notifier.OnEvent("limit strategy started")
}

// Stop disables evaluation. Already-logged alerts are kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasStarted := e.started
	e.started = false
	e.mu.Unlock()

	if wasStarted {
		e.notifier.OnEvent("limit strategy stopped")
	}
}

// Restart stops if running, waits briefly and starts fresh.
func (e *Engine) Restart() {
	if e.Started() {
		e.Stop()
	}
	time.Sleep(restartPause)
	e.Start()
}

// Evaluate classifies one applied minute candle. Intended to run as a
// universe candle hook on the serial queue.
//
// Guard order: strategy started, instrument eligible, volume floor, limits
// known. A candidate alert is suppressed when the newest logged alert for
// the same instrument and band fired within the cooldown window.
func (e *Engine) Evaluate(st *market.Stock, candle market.Candle) {
	if !e.Started() {
		return
	}

	e.mu.RLock()
	empty := len(e.eligible) == 0
	e.mu.RUnlock()
	if empty {
		e.Process()
	}

	e.mu.RLock()
	ok := e.eligible[st.FIGI()]
	e.mu.RUnlock()
	if !ok {
		return
	}

	if candle.Volume < e.cfg.MinVolume {
		return
	}

	info, known := st.Info()
	if !known {
		return
	}

	price := candle.Close
	class, percent := Classify(price, info, e.cfg)
	if class == market.LimitNone {
		return
	}

	alert := market.LimitAlert{
		FIGI:    st.FIGI(),
		Ticker:  st.Ticker(),
		Class:   class,
		Percent: percent,
		Price:   price,
		FiredAt: candle.Time,
	}

	if !e.accept(alert) {
		return
	}

	e.logger.WithFields(logrus.Fields{
		"ticker": alert.Ticker,
		"class":  alert.Class,
		"price":  alert.Price,
	}).Info("limit signal")

	// Notification must not block evaluation.
	go e.notifier.OnAlert(alert)
}

// accept applies the per-band cooldown and prepends the alert on success.
func (e *Engine) accept(alert market.LimitAlert) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := &e.downAlerts
	if alert.Class.UpperBand() {
		log = &e.upAlerts
	}

	// Logs are most-recent-first; the first match is the newest.
	for _, prev := range *log {
		if prev.Ticker != alert.Ticker {
			continue
		}
		if alert.FiredAt.Sub(prev.FiredAt) < e.cfg.Cooldown {
			return false
		}
		break
	}

	*log = append([]market.LimitAlert{alert}, *log...)
	return true
}

// UpperAlerts returns the upper-band log, most recent first.
func (e *Engine) UpperAlerts() []market.LimitAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]market.LimitAlert, len(e.upAlerts))
	copy(out, e.upAlerts)
	return out
}

// LowerAlerts returns the lower-band log, most recent first.
func (e *Engine) LowerAlerts() []market.LimitAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]market.LimitAlert, len(e.downAlerts))
	copy(out, e.downAlerts)
	return out
}

// Eligible returns the current eligible instrument list.
func (e *Engine) Eligible() []*market.Stock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*market.Stock, len(e.stocks))
	copy(out, e.stocks)
	return out
}

// Resort toggles the sort direction and orders the eligible list by percent
// distance to the upper limit, first discarding instruments whose limits are
// still unknown.
func (e *Engine) Resort() []*market.Stock {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.descending = !e.descending

	kept := e.stocks[:0]
	for _, st := range e.stocks {
		info, known := st.Info()
		if !known || !info.LimitsKnown() {
			continue
		}
		kept = append(kept, st)
	}
	e.stocks = kept

	sign := 1.0
	if e.descending {
		sign = -1.0
	}
	sort.SliceStable(e.stocks, func(i, j int) bool {
		di := distanceToUpper(e.stocks[i]) * sign
		dj := distanceToUpper(e.stocks[j]) * sign
		return di < dj
	})

	out := make([]*market.Stock, len(e.stocks))
	copy(out, e.stocks)
	return out
}

func distanceToUpper(st *market.Stock) float64 {
	info, ok := st.Info()
	if !ok {
		return 0
	}
	return utils.PercentFromTo(info.LimitUp, st.PriceNow())
}
