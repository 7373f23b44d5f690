package market

import (
	"testing"
	"time"
)

func TestPriceNowFallback(t *testing.T) {
	st := NewStock(Instrument{FIGI: "F1", Ticker: "AAA"})

	if st.PriceNow() != 0 {
		t.Errorf("Expected zero price with no data, got %v", st.PriceNow())
	}

	st.ApplyClosePrice(ClosePrice{Price: 95})
	if st.PriceNow() != 95 {
		t.Errorf("Expected yesterday's close, got %v", st.PriceNow())
	}

	st.ApplyCandle(Candle{FIGI: "F1", Interval: IntervalDay, Close: 98})
	if st.PriceNow() != 98 {
		t.Errorf("Expected day close to win over yesterday's close, got %v", st.PriceNow())
	}

	st.ApplyCandle(Candle{FIGI: "F1", Interval: IntervalMinute, Close: 100})
	if st.PriceNow() != 100 {
		t.Errorf("Expected minute close to win, got %v", st.PriceNow())
	}
}

func TestPriceChangePercent(t *testing.T) {
	st := NewStock(Instrument{FIGI: "F1", Ticker: "AAA"})

	if st.PriceChangePercent() != 0 {
		t.Error("Expected zero change with no data")
	}

	st.ApplyCandle(Candle{FIGI: "F1", Interval: IntervalMinute, Close: 110})
	if st.PriceChangePercent() != 0 {
		t.Error("Expected zero change without a close price")
	}

	st.ApplyClosePrice(ClosePrice{Price: 100})
	if got := st.PriceChangePercent(); got != 10 {
		t.Errorf("Expected 10 percent change, got %v", got)
	}
}

func TestLastMinuteCandle(t *testing.T) {
	st := NewStock(Instrument{FIGI: "F1"})

	if _, ok := st.LastMinuteCandle(); ok {
		t.Error("Expected no candle on a fresh stock")
	}

	first := Candle{FIGI: "F1", Interval: IntervalMinute, Close: 1, Time: time.Now()}
	second := Candle{FIGI: "F1", Interval: IntervalMinute, Close: 2, Time: time.Now().Add(time.Minute)}
	st.ApplyCandle(first)
	st.ApplyCandle(second)

	got, ok := st.LastMinuteCandle()
	if !ok || got.Close != 2 {
		t.Errorf("Expected the newest candle, got %v", got)
	}
}

func TestLimitsKnown(t *testing.T) {
	tests := []struct {
		name     string
		info     InstrumentInfo
		expected bool
	}{
		{"Both zero", InstrumentInfo{}, false},
		{"Both set", InstrumentInfo{LimitUp: 110, LimitDown: 90}, true},
		{"Upper only", InstrumentInfo{LimitUp: 110}, true},
		{"Lower only", InstrumentInfo{LimitDown: 90}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.LimitsKnown(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestUpperBand(t *testing.T) {
	upper := []LimitClass{LimitOnUpper, LimitAboveUpper, LimitNearUpper}
	for _, class := range upper {
		if !class.UpperBand() {
			t.Errorf("Expected %s in the upper band", class)
		}
	}

	lower := []LimitClass{LimitNone, LimitOnLower, LimitBelowLower, LimitNearLower}
	for _, class := range lower {
		if class.UpperBand() {
			t.Errorf("Expected %s outside the upper band", class)
		}
	}
}
