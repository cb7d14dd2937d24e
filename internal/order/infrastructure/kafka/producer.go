package kafka

import (
	"github.com/segmentio/kafka-go"
)

// Writer publishes effect events for the outbox relay. Messages are
// keyed by order id, so effects for one order land on one partition in
// order.
type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
		},
	}
}
