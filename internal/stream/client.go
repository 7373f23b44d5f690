// Package stream implements the resilient market-data streaming client: one
// persistent websocket connection multiplexing candle, orderbook and
// instrument-info subscriptions, exposed as independently filterable feeds.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrStreamDown is reported when the reconnect attempt ceiling is reached.
// The stream is permanently down and no further retries are scheduled.
var ErrStreamDown = errors.New("stream permanently down")

// Config holds the websocket connection settings.
type Config struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
	ReconnectLimit int
}

// Client owns the transport connection, its reconnect policy, raw message
// decode and the subscription registry replay on reconnect.
type Client struct {
	cfg      Config
	logger   *logrus.Logger
	hub      *Hub
	registry *Registry

	conn atomic.Pointer[websocket.Conn]
	wmu  sync.Mutex // serializes writes to the current connection

	mu       sync.Mutex
	attempts int
	closed   bool

	connected atomic.Bool
	receiving atomic.Bool

	downOnce sync.Once
	onDown   func(error)
}

// NewClient creates a disconnected client. Call Connect to start streaming.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.ReconnectLimit <= 0 {
		cfg.ReconnectLimit = 10000
	}
	c := &Client{
		cfg:    cfg,
		logger: logger,
		hub:    NewHub(),
	}
	c.registry = NewRegistry(c.sendControl, logger)
	return c
}

// SetOnDown registers the collaborator notified when the stream goes
// permanently down. Must be called before Connect.
func (c *Client) SetOnDown(fn func(error)) { c.onDown = fn }

// Hub exposes the broadcast point, mainly for tests and custom consumers.
func (c *Client) Hub() *Hub { return c.hub }

// Registry exposes the subscription bookkeeping.
func (c *Client) Registry() *Registry { return c.registry }

// Connected reports whether the transport is currently open.
func (c *Client) Connected() bool { return c.connected.Load() }

// Receiving reports whether any message arrived on the current connection.
func (c *Client) Receiving() bool { return c.receiving.Load() }

// Connect establishes the stream. Idempotent: a second call while connected
// first closes the prior connection. On success the attempt counter resets
// and all active subscriptions are replayed before new reconciles are
// accepted.
func (c *Client) Connect() error {
	c.mu.Lock()
	c.closed = false
	if c.attempts > c.cfg.ReconnectLimit {
		c.mu.Unlock()
		c.reportDown()
		return ErrStreamDown
	}
	c.mu.Unlock()

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(c.cfg.URL, header)
	if err != nil {
		c.logger.Warnf("stream dial failed: %v", err)
		c.scheduleReconnect()
		return fmt.Errorf("dial stream: %w", err)
	}

	if prev := c.conn.Swap(conn); prev != nil {
		prev.Close()
	}

	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	c.connected.Store(true)
	c.receiving.Store(false)
	c.logger.Info("stream connected")

	// Replay holds the registry exclusively, so reconciles issued after this
	// point cannot race the stale replay.
	c.registry.ReplayAll()

	go c.readLoop(conn)
	return nil
}

// Disconnect tears down the connection and clears outstanding bookkeeping.
// No reconnect is scheduled.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.registry.Clear()
	c.connected.Store(false)
	c.receiving.Store(false)

	if conn := c.conn.Swap(nil); conn != nil {
		conn.Close()
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// A newer Connect may have superseded this connection.
			if c.conn.Load() != conn {
				return
			}
			c.connected.Store(false)
			c.receiving.Store(false)

			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}

			c.logger.Warnf("stream read failed: %v", err)
			c.scheduleReconnect()
			return
		}

		c.receiving.Store(true)
		c.handleMessage(data)
	}
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.attempts++
	if c.attempts > c.cfg.ReconnectLimit {
		c.mu.Unlock()
		c.reportDown()
		return
	}
	attempt := c.attempts
	c.mu.Unlock()

	c.logger.Infof("stream reconnect %d scheduled in %v", attempt, c.cfg.ReconnectDelay)
	time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		_ = c.Connect()
	})
}

func (c *Client) reportDown() {
	c.downOnce.Do(func() {
		c.logger.Error("stream reconnect attempt ceiling reached, giving up")
		if c.onDown != nil {
			c.onDown(ErrStreamDown)
		}
	})
}

// sendControl writes one subscribe/unsubscribe body. Best-effort: failures
// are not retried individually, a later reconnect's replay recovers them.
func (c *Client) sendControl(key Key, subscribe bool) error {
	conn := c.conn.Load()
	if conn == nil {
		return errors.New("stream not connected")
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(controlBody(key, subscribe))
}

// orderbookPayload is the wire shape of an orderbook event: levels arrive as
// [price, quantity] pairs.
type orderbookPayload struct {
	FIGI  string       `json:"figi"`
	Depth int          `json:"depth"`
	Bids  [][2]float64 `json:"bids"`
	Asks  [][2]float64 `json:"asks"`
}

func levels(pairs [][2]float64) []market.PriceLevel {
	out := make([]market.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, market.PriceLevel{Price: p[0], Quantity: p[1]})
	}
	return out
}

// handleMessage decodes one inbound frame by its event tag and publishes the
// typed event. Malformed payloads are dropped and logged; unknown tags are
// dropped silently for forward compatibility.
func (c *Client) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Debugf("dropping malformed frame: %v", err)
		return
	}

	switch Channel(env.Event) {
	case ChannelCandle:
		var candle market.Candle
		if err := json.Unmarshal(env.Payload, &candle); err != nil {
			c.logger.Debugf("dropping malformed candle: %v", err)
			return
		}
		c.hub.Publish(candle)

	case ChannelOrderbook:
		var payload orderbookPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			c.logger.Debugf("dropping malformed orderbook: %v", err)
			return
		}
		c.hub.Publish(market.OrderbookSnapshot{
			FIGI:  payload.FIGI,
			Depth: payload.Depth,
			Bids:  levels(payload.Bids),
			Asks:  levels(payload.Asks),
		})

	case ChannelInfo:
		var info market.InstrumentInfo
		if err := json.Unmarshal(env.Payload, &info); err != nil {
			c.logger.Debugf("dropping malformed instrument info: %v", err)
			return
		}
		c.hub.Publish(info)
	}
}

// Candles reconciles the candle subscription set for interval to figis and
// returns a feed of every subsequent candle with that interval.
func (c *Client) Candles(figis []string, interval market.Interval) *Feed[market.Candle] {
	c.registry.Reconcile(ChannelCandle, string(interval), figis)
	return Subscribe(c.hub, func(cd market.Candle) bool { return cd.Interval == interval })
}

// Orderbooks reconciles the orderbook subscription set for depth to figis
// and returns a feed of matching snapshots.
func (c *Client) Orderbooks(figis []string, depth int) *Feed[market.OrderbookSnapshot] {
	c.registry.Reconcile(ChannelOrderbook, fmt.Sprint(depth), figis)
	return Subscribe(c.hub, func(ob market.OrderbookSnapshot) bool { return ob.Depth == depth })
}

// Infos reconciles the instrument-info subscription set to figis and returns
// a feed of limit/status updates.
func (c *Client) Infos(figis []string) *Feed[market.InstrumentInfo] {
	c.registry.Reconcile(ChannelInfo, "", figis)
	return Subscribe[market.InstrumentInfo](c.hub, nil)
}

// DropCandles unsubscribes one instrument from one candle interval.
func (c *Client) DropCandles(figi string, interval market.Interval) {
	c.registry.Remove(ChannelCandle, string(interval), figi)
}

// DropOrderbook unsubscribes one instrument from one orderbook depth.
func (c *Client) DropOrderbook(figi string, depth int) {
	c.registry.Remove(ChannelOrderbook, fmt.Sprint(depth), figi)
}
