// Package notify delivers fired alerts and process-level notices to the
// outside world. All implementations are fire-and-forget: they must never
// block strategy evaluation.
package notify

import (
	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

// Notifier is the collaborator interface the strategy engine fires into.
type Notifier interface {
	// OnAlert delivers one fired limit alert.
	OnAlert(alert market.LimitAlert)

	// OnEvent delivers a process-level notice (stream down, reference data
	// unreachable, strategy started/stopped).
	OnEvent(message string)
}

// LogNotifier writes alerts and notices to the application log.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OnAlert(alert market.LimitAlert) {
	n.logger.WithFields(logrus.Fields{
		"ticker":  alert.Ticker,
		"class":   alert.Class,
		"price":   alert.Price,
		"percent": alert.Percent,
	}).Info("limit alert")
}

func (n *LogNotifier) OnEvent(message string) {
	n.logger.Info(message)
}

// MultiNotifier fans notifications out to several notifiers.
type MultiNotifier struct {
	targets []Notifier
}

// NewMultiNotifier combines notifiers; nil entries are skipped.
func NewMultiNotifier(targets ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

func (m *MultiNotifier) OnAlert(alert market.LimitAlert) {
	for _, t := range m.targets {
		t.OnAlert(alert)
	}
}

func (m *MultiNotifier) OnEvent(message string) {
	for _, t := range m.targets {
		t.OnEvent(message)
	}
}
