package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/store"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore keeps one Firestore document per processed upload, keyed
// by the generated document ID.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Create fails with store.ErrDocumentExists if the ID is already taken.
func (s *FirestoreStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.client.Collection(s.collection).Doc(doc.DocumentID).Create(ctx, doc)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("document %s: %w", doc.DocumentID, store.ErrDocumentExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", doc.DocumentID, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*models.Document, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("document %s: %w", id, store.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
