package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"bandwatch/internal/market"
)

const produceTimeout = 5 * time.Second

// KafkaNotifier relays alerts to a Kafka topic for downstream consumers
// (chat bots, push gateways). Delivery is asynchronous and best-effort.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewKafkaNotifier creates a relay producing to topic on broker.
func NewKafkaNotifier(broker, topic string, logger *logrus.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		logger: logger,
	}
}

func (n *KafkaNotifier) OnAlert(alert market.LimitAlert) {
	value, err := json.Marshal(alert)
	if err != nil {
		n.logger.Warnf("alert marshal failed: %v", err)
		return
	}
	n.produce(kafka.Message{Key: []byte(alert.Ticker), Value: value})
}

func (n *KafkaNotifier) OnEvent(message string) {
	n.produce(kafka.Message{Key: []byte("event"), Value: []byte(message)})
}

func (n *KafkaNotifier) produce(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Warnf("alert relay failed: %v", err)
	}
}

// Close flushes and releases the producer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
