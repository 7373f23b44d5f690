package strategy

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

type stubUniverse struct {
	stocks []*market.Stock
}

func (u *stubUniverse) Streamed() []*market.Stock { return u.stocks }

type stubNotifier struct {
	mu     sync.Mutex
	alerts []market.LimitAlert
	events []string
}

func (n *stubNotifier) OnAlert(alert market.LimitAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func (n *stubNotifier) OnEvent(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, message)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func engineConfig() Config {
	return Config{
		ThresholdUp:   10,
		ThresholdDown: 10,
		AllowUp:       true,
		AllowDown:     true,
		MinVolume:     50,
		Cooldown:      5 * time.Minute,
		PriceMin:      0,
		PriceMax:      10000,
	}
}

// bandedStock builds a stock with a known limit band and one minute candle so
// it has a current price.
func bandedStock(figi, ticker string, price float64) *market.Stock {
	st := market.NewStock(market.Instrument{FIGI: figi, Ticker: ticker, Currency: "USD"})
	st.ApplyInfo(market.InstrumentInfo{FIGI: figi, LimitUp: 110, LimitDown: 90})
	st.ApplyCandle(market.Candle{FIGI: figi, Interval: market.IntervalMinute, Close: price, Volume: 100})
	return st
}

func minuteCandle(figi string, price, volume float64, at time.Time) market.Candle {
	return market.Candle{
		FIGI:     figi,
		Interval: market.IntervalMinute,
		Close:    price,
		Volume:   volume,
		Time:     at,
	}
}

func TestEvaluateRequiresStart(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now()))
	if len(engine.UpperAlerts()) != 0 {
		t.Error("Expected no alerts before Start")
	}
}

func TestEvaluateFiresNearUpper(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Start()

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now()))

	alerts := engine.UpperAlerts()
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 upper alert, got %d", len(alerts))
	}
	if alerts[0].Class != market.LimitNearUpper {
		t.Errorf("Expected NEAR_UPPER, got %s", alerts[0].Class)
	}
	if alerts[0].Ticker != "AAA" {
		t.Errorf("Expected ticker AAA, got %s", alerts[0].Ticker)
	}
	if len(engine.LowerAlerts()) != 0 {
		t.Error("Expected no lower alerts")
	}
}

func TestEvaluateVolumeFloor(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Start()

	engine.Evaluate(st, minuteCandle("F1", 109, 10, time.Now()))
	if len(engine.UpperAlerts()) != 0 {
		t.Error("Expected no alert for candle below the volume floor")
	}
}

func TestEvaluateIneligiblePrice(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	cfg := engineConfig()
	cfg.PriceMin = 500
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), cfg)
	engine.Start()

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now()))
	if len(engine.UpperAlerts()) != 0 {
		t.Error("Expected no alert for instrument outside the price range")
	}
}

func TestEvaluateCooldown(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Start()

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	engine.Evaluate(st, minuteCandle("F1", 109, 100, base))
	if got := len(engine.UpperAlerts()); got != 1 {
		t.Fatalf("Expected 1 alert after first candle, got %d", got)
	}

	engine.Evaluate(st, minuteCandle("F1", 109, 100, base.Add(4*time.Minute)))
	if got := len(engine.UpperAlerts()); got != 1 {
		t.Fatalf("Expected repeat within cooldown to be suppressed, got %d alerts", got)
	}

	engine.Evaluate(st, minuteCandle("F1", 109, 100, base.Add(6*time.Minute)))
	alerts := engine.UpperAlerts()
	if len(alerts) != 2 {
		t.Fatalf("Expected repeat after cooldown to fire, got %d alerts", len(alerts))
	}
	if !alerts[0].FiredAt.Equal(base.Add(6 * time.Minute)) {
		t.Errorf("Expected most recent alert first, got FiredAt %v", alerts[0].FiredAt)
	}
}

func TestEvaluateCooldownPerBand(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Start()

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	engine.Evaluate(st, minuteCandle("F1", 109, 100, base))
	engine.Evaluate(st, minuteCandle("F1", 91, 100, base.Add(time.Minute)))

	if got := len(engine.UpperAlerts()); got != 1 {
		t.Errorf("Expected 1 upper alert, got %d", got)
	}
	if got := len(engine.LowerAlerts()); got != 1 {
		t.Errorf("Expected 1 lower alert, the bands cool down independently, got %d", got)
	}
}

func TestStartClearsAlerts(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	notifier := &stubNotifier{}
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, notifier, testLogger(), engineConfig())
	engine.Start()

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now()))
	if len(engine.UpperAlerts()) != 1 {
		t.Fatal("Expected 1 alert before restart")
	}

	engine.Start()
	if len(engine.UpperAlerts()) != 0 {
		t.Error("Expected Start to clear the alert logs")
	}
}

func TestStopKeepsAlerts(t *testing.T) {
	st := bandedStock("F1", "AAA", 100)
	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{st}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Start()

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now()))
	engine.Stop()

	if engine.Started() {
		t.Error("Expected engine stopped")
	}
	if len(engine.UpperAlerts()) != 1 {
		t.Error("Expected Stop to keep logged alerts")
	}

	engine.Evaluate(st, minuteCandle("F1", 109, 100, time.Now().Add(10*time.Minute)))
	if len(engine.UpperAlerts()) != 1 {
		t.Error("Expected no evaluation while stopped")
	}
}

func TestResort(t *testing.T) {
	closer := bandedStock("F1", "AAA", 105)
	farther := bandedStock("F2", "BBB", 95)
	noLimits := market.NewStock(market.Instrument{FIGI: "F3", Ticker: "CCC"})
	noLimits.ApplyCandle(market.Candle{FIGI: "F3", Interval: market.IntervalMinute, Close: 50, Volume: 100})

	engine := NewEngine(&stubUniverse{stocks: []*market.Stock{closer, farther, noLimits}}, &stubNotifier{}, testLogger(), engineConfig())
	engine.Process()

	ascending := engine.Resort()
	if len(ascending) != 2 {
		t.Fatalf("Expected unknown-limit instruments discarded, got %d stocks", len(ascending))
	}
	if ascending[0].FIGI() != "F2" || ascending[1].FIGI() != "F1" {
		t.Errorf("Expected ascending order F2, F1, got %s, %s", ascending[0].FIGI(), ascending[1].FIGI())
	}

	descending := engine.Resort()
	if descending[0].FIGI() != "F1" || descending[1].FIGI() != "F2" {
		t.Errorf("Expected descending order F1, F2, got %s, %s", descending[0].FIGI(), descending[1].FIGI())
	}
}
