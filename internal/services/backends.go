package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/documentanalytics/internal/gcp"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
	"github.com/Lllllllleong/documentanalytics/internal/store"
)

// closers releases the clients a function opened, in reverse order.
type closers []io.Closer

func (c closers) Close() error {
	var firstErr error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			slog.Warn("Failed to close client.", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type recordStoreCloser interface {
	RecordStore
	io.Closer
}

type publisherCloser interface {
	Publisher
	io.Closer
}

func newRecordStore(ctx context.Context, projectID string, cfg StoreConfig) (recordStoreCloser, error) {
	switch cfg.RecordStore {
	case RecordStoreRedis:
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		return store.NewRedisStore(client, cfg.RedisKeyPrefix), nil
	case RecordStoreFirestore:
		client, err := gcp.NewFirestoreClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return gcp.NewFirestoreStore(client, cfg.CollectionName), nil
	default:
		return nil, fmt.Errorf("unsupported record store %q", cfg.RecordStore)
	}
}

func newPublisher(ctx context.Context, projectID string, cfg NotifierConfig) (publisherCloser, error) {
	switch cfg.NotifierBackend {
	case NotifierKafka:
		p, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		return p, nil
	case NotifierPubSub:
		p, err := gcp.NewPubSubPublisher(ctx, projectID, cfg.TopicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create pubsub publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported notifier backend %q", cfg.NotifierBackend)
	}
}
