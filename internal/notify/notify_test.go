package notify

import (
	"testing"

	"bandwatch/internal/market"
)

type countingNotifier struct {
	alerts int
	events int
}

func (n *countingNotifier) OnAlert(market.LimitAlert) { n.alerts++ }
func (n *countingNotifier) OnEvent(string)            { n.events++ }

func TestMultiNotifierFansOut(t *testing.T) {
	first := &countingNotifier{}
	second := &countingNotifier{}
	multi := NewMultiNotifier(first, nil, second)

	multi.OnAlert(market.LimitAlert{Ticker: "AAA", Class: market.LimitNearUpper})
	multi.OnEvent("started")
	multi.OnEvent("stopped")

	for i, n := range []*countingNotifier{first, second} {
		if n.alerts != 1 {
			t.Errorf("Notifier %d: expected 1 alert, got %d", i, n.alerts)
		}
		if n.events != 2 {
			t.Errorf("Notifier %d: expected 2 events, got %d", i, n.events)
		}
	}
}

func TestMultiNotifierEmpty(t *testing.T) {
	multi := NewMultiNotifier(nil)
	multi.OnAlert(market.LimitAlert{})
	multi.OnEvent("no targets")
}
