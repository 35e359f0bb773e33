package notify

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// SubjectHeader carries the message subject on brokers without a native subject field.
const SubjectHeader = "subject"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes notifications to a single Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic must be provided")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

// Publish blocks until the broker acknowledged the message.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Subject),
		Value:   []byte(msg.Body),
		Headers: []kafka.Header{{Key: SubjectHeader, Value: []byte(msg.Subject)}},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
