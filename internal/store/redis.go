package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Lllllllleong/documentanalytics/internal/models"
)

// DefaultKeyPrefix namespaces document keys.
const DefaultKeyPrefix = "document:"

// RedisStore persists documents as JSON values, one key per document.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisClient connects to the Redis server at addr.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address must be provided")
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore wraps client. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "RedisStore"),
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create writes doc only if its key is unused.
func (s *RedisStore) Create(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.DocumentID, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(doc.DocumentID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", doc.DocumentID, err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", doc.DocumentID, ErrDocumentExists)
	}
	s.logger.Debug("Saved document to Redis.", "documentId", doc.DocumentID)
	return nil
}

// Get loads the document stored under id.
func (s *RedisStore) Get(ctx context.Context, id string) (*models.Document, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("document %s: %w", id, ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	var doc models.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
