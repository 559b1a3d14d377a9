package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/MariferVL/eventhub/internal/model"
)

// KafkaNotifier publishes slot changes to a Kafka topic, keyed by event id
// so changes for one event stay on one partition in order.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier constructs a KafkaNotifier.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// SlotsChanged writes one message to the topic.
func (n *KafkaNotifier) SlotsChanged(ctx context.Context, eventID string, remaining int) error {
	payload, err := json.Marshal(model.SlotsChange{EventID: eventID, Remaining: remaining})
	if err != nil {
		return fmt.Errorf("marshal slots change: %w", err)
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write slots change: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
