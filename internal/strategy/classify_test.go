package strategy

import (
	"testing"

	"bandwatch/internal/market"
)

func classifyConfig() Config {
	return Config{
		ThresholdUp:   10,
		ThresholdDown: 10,
		AllowUp:       true,
		AllowDown:     true,
	}
}

func TestClassify(t *testing.T) {
	info := market.InstrumentInfo{FIGI: "BBG000TEST01", LimitUp: 110, LimitDown: 90}

	tests := []struct {
		name     string
		price    float64
		expected market.LimitClass
	}{
		{"Mid band", 105, market.LimitNone},
		{"At center", 100, market.LimitNone},
		{"Near upper at threshold", 109, market.LimitNearUpper},
		{"On upper limit", 110, market.LimitOnUpper},
		{"Above upper limit", 111, market.LimitAboveUpper},
		{"Near lower at threshold", 91, market.LimitNearLower},
		{"On lower limit", 90, market.LimitOnLower},
		{"Below lower limit", 89, market.LimitBelowLower},
		{"Upper half but far", 104, market.LimitNone},
		{"Lower half but far", 96, market.LimitNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, _ := Classify(tt.price, info, classifyConfig())
			if class != tt.expected {
				t.Errorf("Expected %s for price %v, got %s", tt.expected, tt.price, class)
			}
		})
	}
}

func TestClassifyPercent(t *testing.T) {
	info := market.InstrumentInfo{FIGI: "BBG000TEST01", LimitUp: 110, LimitDown: 90}

	t.Run("Below upper limit is negative", func(t *testing.T) {
		class, percent := Classify(109, info, classifyConfig())
		if class != market.LimitNearUpper {
			t.Fatalf("Expected NEAR_UPPER, got %s", class)
		}
		if percent >= 0 {
			t.Errorf("Expected negative distance to upper limit, got %v", percent)
		}
	})

	t.Run("Above lower limit is positive", func(t *testing.T) {
		class, percent := Classify(91, info, classifyConfig())
		if class != market.LimitNearLower {
			t.Fatalf("Expected NEAR_LOWER, got %s", class)
		}
		if percent <= 0 {
			t.Errorf("Expected positive distance to lower limit, got %v", percent)
		}
	})

	t.Run("On limit is zero", func(t *testing.T) {
		_, percent := Classify(110, info, classifyConfig())
		if percent != 0 {
			t.Errorf("Expected zero distance on the limit, got %v", percent)
		}
	})
}

func TestClassifyUnknownLimits(t *testing.T) {
	info := market.InstrumentInfo{FIGI: "BBG000TEST01"}

	for _, price := range []float64{0, 50, 100, 1000} {
		class, percent := Classify(price, info, classifyConfig())
		if class != market.LimitNone || percent != 0 {
			t.Errorf("Expected NONE with unknown limits at price %v, got %s (%v)", price, class, percent)
		}
	}
}

func TestClassifyDisabledDirections(t *testing.T) {
	info := market.InstrumentInfo{FIGI: "BBG000TEST01", LimitUp: 110, LimitDown: 90}

	t.Run("Upper disabled", func(t *testing.T) {
		cfg := classifyConfig()
		cfg.AllowUp = false
		for _, price := range []float64{109, 110, 111} {
			if class, _ := Classify(price, info, cfg); class != market.LimitNone {
				t.Errorf("Expected NONE at price %v with upper band disabled, got %s", price, class)
			}
		}
	})

	t.Run("Lower disabled", func(t *testing.T) {
		cfg := classifyConfig()
		cfg.AllowDown = false
		for _, price := range []float64{91, 90, 89} {
			if class, _ := Classify(price, info, cfg); class != market.LimitNone {
				t.Errorf("Expected NONE at price %v with lower band disabled, got %s", price, class)
			}
		}
	})
}
