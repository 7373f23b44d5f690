// Package universe owns the authoritative instrument list and all per
// instrument live state. Every mutation runs on the single-writer serial
// queue; readers get eventually-consistent snapshots.
package universe

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bandwatch/configs"
	"bandwatch/internal/market"
	"bandwatch/internal/notify"
	"bandwatch/internal/refdata"
	"bandwatch/internal/serial"
	"bandwatch/internal/stream"
)

const (
	fetchRetryDelay   = 1 * time.Second
	indexRefreshEvery = 30 * time.Second
	indexRetryDelay   = 5 * time.Second
)

// StreamSource is the slice of the streaming client the universe consumes.
type StreamSource interface {
	Candles(figis []string, interval market.Interval) *stream.Feed[market.Candle]
	Infos(figis []string) *stream.Feed[market.InstrumentInfo]
	Orderbooks(figis []string, depth int) *stream.Feed[market.OrderbookSnapshot]
	DropCandles(figi string, interval market.Interval)
	DropOrderbook(figi string, depth int)
}

// ReferenceSource is the pull interface for auxiliary reference data.
type ReferenceSource interface {
	ClosePrices(ctx context.Context) (map[string]market.ClosePrice, error)
	Reports(ctx context.Context) (map[string]market.Report, error)
	ShortInterest(ctx context.Context) (map[string]market.ShortInterest, error)
	Indices(ctx context.Context) ([]market.Index, error)
	IndexMembership(ctx context.Context) (map[string][]string, error)
	PriceSteps(ctx context.Context) (map[string]market.PriceSteps, error)
	MorningMovers(ctx context.Context) (map[string]refdata.MorningMover, error)
}

// CandleHook is invoked on the serial queue for every applied minute candle.
type CandleHook func(*market.Stock, market.Candle)

// Manager loads the universe, applies stream events to live state and merges
// reference data.
type Manager struct {
	cache    Cache
	source   InstrumentSource
	ref      ReferenceSource
	stream   StreamSource
	queue    *serial.Queue
	notifier notify.Notifier
	logger   *logrus.Logger
	cfg      configs.UniverseConfig

	mu       sync.RWMutex
	all      []*market.Stock
	streamed []*market.Stock
	byFIGI   map[string]*market.Stock
	indices  []market.Index

	candleHooks []CandleHook
}

// NewManager wires the universe manager. Register candle hooks before Load.
func NewManager(
	cache Cache,
	source InstrumentSource,
	ref ReferenceSource,
	streamSource StreamSource,
	queue *serial.Queue,
	notifier notify.Notifier,
	logger *logrus.Logger,
	cfg configs.UniverseConfig,
) *Manager {
	return &Manager{
		cache:    cache,
		source:   source,
		ref:      ref,
		stream:   streamSource,
		queue:    queue,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		byFIGI:   make(map[string]*market.Stock),
	}
}

// RegisterCandleHook adds a minute-candle consumer (a strategy entry point).
// Not safe to call after Load.
func (m *Manager) RegisterCandleHook(hook CandleHook) {
	m.candleHooks = append(m.candleHooks, hook)
}

// Load obtains the instrument list, applies exclusion rules, partitions by
// currency, resubscribes the stream and kicks off reference-data merges.
//
// The cached snapshot is used unless force is set or this is the fifth
// process start since the last refetch.
func (m *Manager) Load(ctx context.Context, force bool) error {
	reload := force

	session, err := m.cache.NextSession(ctx)
	if err != nil {
		m.logger.Warnf("session counter unavailable: %v", err)
	} else if session%forceEvery == 0 {
		reload = true
	}

	var instruments []market.Instrument
	if !reload {
		instruments, err = m.cache.Instruments(ctx)
		if err != nil && err != ErrCacheMiss {
			m.logger.Warnf("instrument cache read failed: %v", err)
		}
	}

	if len(instruments) == 0 {
		instruments, err = m.fetchInstruments(ctx)
		if err != nil {
			return err
		}
		if err := m.cache.SaveInstruments(ctx, instruments); err != nil {
			m.logger.Warnf("instrument cache write failed: %v", err)
		}
	}

	m.rebuild(instruments)
	m.ResetSubscriptions(ctx)

	go m.RefreshReferenceData(ctx)
	go m.RunIndexLoop(ctx)
	return nil
}

// fetchInstruments retries the list endpoint with a fixed delay until it
// succeeds or the context is cancelled.
func (m *Manager) fetchInstruments(ctx context.Context) ([]market.Instrument, error) {
	for {
		instruments, err := m.source.Instruments(ctx)
		if err == nil {
			m.logger.Infof("fetched %d instruments", len(instruments))
			return instruments, nil
		}

		m.logger.Warnf("instrument fetch failed: %v", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(fetchRetryDelay):
		}
	}
}

// rebuild applies exclusions and aliases and swaps in the new universe.
func (m *Manager) rebuild(instruments []market.Instrument) {
	all := make([]*market.Stock, 0, len(instruments))
	byFIGI := make(map[string]*market.Stock, len(instruments))

	for _, instrument := range instruments {
		if excluded(instrument.FIGI, instrument.Ticker) {
			continue
		}
		if _, dup := byFIGI[instrument.FIGI]; dup {
			continue
		}
		st := market.NewStock(instrument)
		st.Alias = aliases[instrument.Ticker]
		all = append(all, st)
		byFIGI[instrument.FIGI] = st
	}

	allowed := make(map[string]bool, len(m.cfg.AllowedCurrencies))
	for _, currency := range m.cfg.AllowedCurrencies {
		allowed[currency] = true
	}

	streamed := all
	if !m.cfg.AllowAll {
		streamed = make([]*market.Stock, 0, len(all))
		for _, st := range all {
			if allowed[st.Instrument.Currency] {
				streamed = append(streamed, st)
			}
		}
	}

	m.mu.Lock()
	m.all = all
	m.streamed = streamed
	m.byFIGI = byFIGI
	m.mu.Unlock()

	m.logger.Infof("universe loaded: %d instruments, %d streamed", len(all), len(streamed))
}

// All returns a snapshot of the full (post-exclusion) universe.
func (m *Manager) All() []*market.Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*market.Stock, len(m.all))
	copy(out, m.all)
	return out
}

// Streamed returns a snapshot of the currency-partitioned streamed set.
func (m *Manager) Streamed() []*market.Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*market.Stock, len(m.streamed))
	copy(out, m.streamed)
	return out
}

// Indices returns the latest market index snapshot.
func (m *Manager) Indices() []market.Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]market.Index, len(m.indices))
	copy(out, m.indices)
	return out
}

// ByFIGI finds a stock by instrument identifier.
func (m *Manager) ByFIGI(figi string) *market.Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byFIGI[figi]
}

// ByTicker finds a stock by symbol, also matching the display alias.
func (m *Manager) ByTicker(ticker string) *market.Stock {
	lower := strings.ToLower(ticker)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.all {
		if st.Ticker() == ticker || (st.Alias != "" && strings.Contains(st.Alias, lower)) {
			return st
		}
	}
	return nil
}

// find resolves an event identifier: by FIGI first, then by symbol, since
// some feeds key events by ticker.
func (m *Manager) find(id string) *market.Stock {
	if st := m.ByFIGI(id); st != nil {
		return st
	}
	return m.ByTicker(id)
}

// ResetSubscriptions reconciles the stream subscriptions to the current
// universe: minute and day candles for the streamed set, instrument info for
// everything. Consumers feed the serial queue.
func (m *Manager) ResetSubscriptions(ctx context.Context) {
	streamedFIGIs := figis(m.Streamed())
	allFIGIs := figis(m.All())

	minuteFeed := m.stream.Candles(streamedFIGIs, market.IntervalMinute)
	dayFeed := m.stream.Candles(streamedFIGIs, market.IntervalDay)
	infoFeed := m.stream.Infos(allFIGIs)

	go m.consumeCandles(ctx, minuteFeed)
	go m.consumeCandles(ctx, dayFeed)
	go m.consumeInfos(ctx, infoFeed)
}

// SubscribeOrderbook replaces the orderbook subscription set with this one
// instrument (one book on screen at a time) and consumes its snapshots.
func (m *Manager) SubscribeOrderbook(ctx context.Context, st *market.Stock, depth int) {
	feed := m.stream.Orderbooks([]string{st.FIGI()}, depth)
	go m.consumeOrderbooks(ctx, feed)
}

// UnsubscribeOrderbook drops one instrument's orderbook feed.
func (m *Manager) UnsubscribeOrderbook(st *market.Stock, depth int) {
	m.stream.DropOrderbook(st.FIGI(), depth)
}

func (m *Manager) consumeCandles(ctx context.Context, feed *stream.Feed[market.Candle]) {
	defer feed.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case candle, ok := <-feed.C():
			if !ok {
				return
			}
			m.queue.Do(func() { m.applyCandle(candle) })
		}
	}
}

func (m *Manager) consumeInfos(ctx context.Context, feed *stream.Feed[market.InstrumentInfo]) {
	defer feed.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case info, ok := <-feed.C():
			if !ok {
				return
			}
			m.queue.Do(func() { m.applyInstrumentInfo(info) })
		}
	}
}

func (m *Manager) consumeOrderbooks(ctx context.Context, feed *stream.Feed[market.OrderbookSnapshot]) {
	defer feed.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ob, ok := <-feed.C():
			if !ok {
				return
			}
			m.queue.Do(func() { m.applyOrderbook(ob) })
		}
	}
}

// applyCandle runs on the serial queue.
func (m *Manager) applyCandle(candle market.Candle) {
	st := m.find(candle.FIGI)
	if st == nil {
		return
	}
	st.ApplyCandle(candle)

	switch candle.Interval {
	case market.IntervalMinute:
		for _, hook := range m.candleHooks {
			hook(st, candle)
		}
	case market.IntervalDay:
		// Day candles seed volume/close once per instrument; drop the feed
		// after the first one arrives.
		if st.DayCandleCount() == 1 {
			m.stream.DropCandles(st.FIGI(), market.IntervalDay)
		}
	}
}

// applyInstrumentInfo runs on the serial queue.
func (m *Manager) applyInstrumentInfo(info market.InstrumentInfo) {
	if st := m.find(info.FIGI); st != nil {
		st.ApplyInfo(info)
	}
}

// applyOrderbook runs on the serial queue.
func (m *Manager) applyOrderbook(ob market.OrderbookSnapshot) {
	if st := m.find(ob.FIGI); st != nil {
		st.ApplyOrderbook(ob)
	}
}

func figis(stocks []*market.Stock) []string {
	out := make([]string, 0, len(stocks))
	for _, st := range stocks {
		out = append(out, st.FIGI())
	}
	return out
}
