// Package strategy implements the limit-band detection strategy: it
// classifies live prices against each instrument's trading-limit band and
// maintains ranked alert logs with per-instrument cooldowns.
package strategy

import (
	"time"

	"bandwatch/internal/market"
	"bandwatch/utils"
)

// Config holds the limit strategy settings.
type Config struct {
	// ThresholdUp is the near-limit threshold percent for the upper band:
	// the remaining share of the upper half-band below which a price counts
	// as near the limit.
	ThresholdUp float64

	// ThresholdDown is the symmetric threshold for the lower band.
	ThresholdDown float64

	// AllowUp and AllowDown enable each band direction independently.
	AllowUp   bool
	AllowDown bool

	// MinVolume is the minimum candle volume required for evaluation.
	MinVolume float64

	// Cooldown is the minimum time between two accepted alerts for the same
	// instrument and band.
	Cooldown time.Duration

	// PriceMin and PriceMax bound the eligible instrument price range.
	PriceMin float64
	PriceMax float64
}

// Classify places price against the instrument's limit band.
//
// The returned percent is the distance from the relevant limit to the price
// (negative when the price is below that limit). Unknown limits (both zero)
// disable classification entirely.
//
// The near-band check measures how much of the half-band remains between the
// price and the limit; at or under the configured threshold the price counts
// as near.
func Classify(price float64, info market.InstrumentInfo, cfg Config) (market.LimitClass, float64) {
	if !info.LimitsKnown() {
		return market.LimitNone, 0
	}

	center := info.LimitDown + (info.LimitUp-info.LimitDown)/2
	upPercent := utils.PercentFromTo(info.LimitUp, price)
	downPercent := utils.PercentFromTo(info.LimitDown, price)

	switch {
	case price == info.LimitUp && cfg.AllowUp:
		return market.LimitOnUpper, upPercent

	case price == info.LimitDown && cfg.AllowDown:
		return market.LimitOnLower, downPercent

	case price > info.LimitUp && cfg.AllowUp:
		return market.LimitAboveUpper, upPercent

	case price > center && cfg.AllowUp:
		remaining := 100 - 100*(price-center)/(info.LimitUp-center)
		if remaining <= cfg.ThresholdUp {
			return market.LimitNearUpper, upPercent
		}

	case price < info.LimitDown && cfg.AllowDown:
		return market.LimitBelowLower, downPercent

	case price < center && cfg.AllowDown:
		remaining := 100 - 100*(center-price)/(center-info.LimitDown)
		if remaining <= cfg.ThresholdDown {
			return market.LimitNearLower, downPercent
		}
	}

	return market.LimitNone, 0
}
