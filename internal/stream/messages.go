package stream

import (
	"encoding/json"
	"strconv"

	"bandwatch/internal/market"
)

// Channel is a logical stream category, independently subscribable per
// instrument.
type Channel string

const (
	ChannelCandle    Channel = "candle"
	ChannelOrderbook Channel = "orderbook"
	ChannelInfo      Channel = "instrument_info"
)

// Key uniquely identifies one logical subscription.
// Param carries the channel parameter: the candle interval, the orderbook
// depth (as a decimal string), or "" for instrument info.
type Key struct {
	Channel Channel
	FIGI    string
	Param   string
}

// envelope is the inbound message frame: an event-type tag plus a payload
// decoded per tag. Unknown tags are dropped.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// candleControl is the outbound candle subscribe/unsubscribe body.
type candleControl struct {
	Event    string          `json:"event"`
	FIGI     string          `json:"figi"`
	Interval market.Interval `json:"interval"`
}

// orderbookControl is the outbound orderbook subscribe/unsubscribe body.
type orderbookControl struct {
	Event string `json:"event"`
	FIGI  string `json:"figi"`
	Depth int    `json:"depth"`
}

// infoControl is the outbound instrument-info subscribe/unsubscribe body.
type infoControl struct {
	Event string `json:"event"`
	FIGI  string `json:"figi"`
}

// controlBody builds the wire body for a subscribe or unsubscribe of key.
func controlBody(key Key, subscribe bool) any {
	verb := ":subscribe"
	if !subscribe {
		verb = ":unsubscribe"
	}
	event := string(key.Channel) + verb

	switch key.Channel {
	case ChannelCandle:
		return candleControl{Event: event, FIGI: key.FIGI, Interval: market.Interval(key.Param)}
	case ChannelOrderbook:
		depth, _ := strconv.Atoi(key.Param)
		return orderbookControl{Event: event, FIGI: key.FIGI, Depth: depth}
	default:
		return infoControl{Event: event, FIGI: key.FIGI}
	}
}
