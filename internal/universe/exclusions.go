package universe

import "strings"

// Instruments known to never deliver stream data.
var ignoreFIGIs = map[string]bool{
	"BBG00GTWPCQ0": true,
	"BBG000R3RKT8": true,
	"BBG0089KM290": true,
	"BBG000D9V7T4": true,
	"BBG000TZGXK8": true,
	"BBG001P3K000": true,
	"BBG003QRSQD3": true,
	"BBG001DJNR51": true,
	"BBG000MDCJV7": true,
	"BBG000BS9HN3": true,
	"BBG000BCNYT9": true,
	"BBG002BHBHM1": true,
	"BBG000GLG0G0": true,
	"BBG00F40L971": true,
	"BBG000BXNJ07": true,
	"BBG00HY28P97": true,
	"BBG000PCNQN7": true,
	"BBG000C1JTL6": true,
	"BBG000BGTX98": true,
	"BBG000C15114": true,
	"BBG000BB0P33": true,
	"BBG000FH5YM1": true,
	"BBG00J5LMW10": true,
	"BBG000BL4504": true,
}

// Tickers delisted or merged away; the feed still lists them.
var ignoreTickers = map[string]bool{
	"AAXN": true, "LVGO": true, "TECD": true, "NBL": true, "AIMT": true,
	"CXO": true, "ETFC": true, "LOGM": true, "IMMU": true, "LM": true,
	"BMCH": true, "AGN": true, "MYL": true, "MYOK": true, "AXE": true,
	"HDS": true, "SINA": true, "TIF": true, "TCS": true,
}

const (
	// legacyMarker flags retired ticker variants like "FOO old".
	legacyMarker = "old"

	// fundFamilyMarker excludes the broker's own issuer-fund instruments.
	fundFamilyMarker = "TCS"
)

// aliases maps tickers to voice-friendly display names.
var aliases = map[string]string{
	"SPCE": "galactic",
	"BABA": "alibaba",
	"CCL":  "carnival",
	"HEAR": "turtle",
	"SAVE": "spirit yellow",
	"SPR":  "spirit blue",
	"SWN":  "southwestern",
	"BBBY": "bed bath",
	"BIDU": "baidu",
	"CLOV": "clover",
	"TAL":  "tal education",
}

// excluded applies the static exclusion rules to one instrument identity.
func excluded(figi, ticker string) bool {
	if ignoreFIGIs[figi] {
		return true
	}
	if ignoreTickers[ticker] {
		return true
	}
	if strings.Contains(ticker, legacyMarker) {
		return true
	}
	if strings.Contains(figi, fundFamilyMarker) {
		return true
	}
	return false
}
