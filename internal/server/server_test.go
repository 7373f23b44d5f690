package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

type stubUniverse struct {
	stocks  []*market.Stock
	indices []market.Index
}

func (u *stubUniverse) Streamed() []*market.Stock { return u.stocks }
func (u *stubUniverse) Indices() []market.Index   { return u.indices }

type stubEngine struct {
	started bool
	upper   []market.LimitAlert
	lower   []market.LimitAlert
}

func (e *stubEngine) Started() bool                    { return e.started }
func (e *stubEngine) UpperAlerts() []market.LimitAlert { return e.upper }
func (e *stubEngine) LowerAlerts() []market.LimitAlert { return e.lower }

type stubStream struct {
	connected bool
	receiving bool
}

func (s *stubStream) Connected() bool { return s.connected }
func (s *stubStream) Receiving() bool { return s.receiving }

func testServer(universe *stubUniverse, engine *stubEngine, streamView *stubStream) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(universe, engine, streamView, logger)
}

func get(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Router().ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("Decoding %s response failed: %v", path, err)
		}
	}
	return w.Code
}

func TestGetStatus(t *testing.T) {
	s := testServer(&stubUniverse{}, &stubEngine{started: true}, &stubStream{connected: true})

	var body map[string]bool
	if code := get(t, s, "/api/status", &body); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if !body["stream_connected"] {
		t.Error("Expected stream_connected true")
	}
	if body["stream_receiving"] {
		t.Error("Expected stream_receiving false")
	}
	if !body["strategy_started"] {
		t.Error("Expected strategy_started true")
	}
}

func TestGetStocks(t *testing.T) {
	st := market.NewStock(market.Instrument{FIGI: "F1", Ticker: "AAA", Currency: "USD"})
	st.ApplyCandle(market.Candle{FIGI: "F1", Interval: market.IntervalMinute, Close: 105})
	st.ApplyInfo(market.InstrumentInfo{FIGI: "F1", LimitUp: 110, LimitDown: 90})

	s := testServer(&stubUniverse{stocks: []*market.Stock{st}}, &stubEngine{}, &stubStream{})

	var body []map[string]any
	if code := get(t, s, "/api/stocks", &body); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(body) != 1 {
		t.Fatalf("Expected 1 stock, got %d", len(body))
	}
	if body[0]["ticker"] != "AAA" {
		t.Errorf("Expected ticker AAA, got %v", body[0]["ticker"])
	}
	if body[0]["price"] != 105.0 {
		t.Errorf("Expected price 105, got %v", body[0]["price"])
	}
	if body[0]["limit_up"] != 110.0 {
		t.Errorf("Expected limit_up 110, got %v", body[0]["limit_up"])
	}
}

func TestGetAlerts(t *testing.T) {
	engine := &stubEngine{
		upper: []market.LimitAlert{{Ticker: "AAA", Class: market.LimitNearUpper}},
	}
	s := testServer(&stubUniverse{}, engine, &stubStream{})

	var upper []market.LimitAlert
	if code := get(t, s, "/api/alerts/upper", &upper); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(upper) != 1 || upper[0].Ticker != "AAA" {
		t.Errorf("Expected one AAA alert, got %v", upper)
	}

	var lower []market.LimitAlert
	get(t, s, "/api/alerts/lower", &lower)
	if len(lower) != 0 {
		t.Errorf("Expected no lower alerts, got %v", lower)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := testServer(&stubUniverse{}, &stubEngine{}, &stubStream{})
	if code := get(t, s, "/api/nope", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", code)
	}
}
