package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/Lllllllleong/documentanalytics/internal/notify"
)

// PubSubPublisher publishes notifications to a single Pub/Sub topic. The
// subject travels as a message attribute.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func NewPubSubPublisher(ctx context.Context, projectID, topicID string) (*PubSubPublisher, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("NewPubSubPublisher: projectID and topicID cannot be empty")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topicID)}, nil
}

// Publish returns once the broker accepted the message.
func (p *PubSubPublisher) Publish(ctx context.Context, msg notify.Message) error {
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(msg.Body),
		Attributes: map[string]string{notify.SubjectHeader: msg.Subject},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic.ID(), err)
	}
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
