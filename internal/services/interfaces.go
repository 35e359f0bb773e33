package services

import (
	"context"

	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mock_services github.com/Lllllllleong/documentanalytics/internal/services BlobReader,RecordStore,Publisher,Dispatcher

// BlobReader fetches an uploaded object. A missing or unreadable object is
// an error.
type BlobReader interface {
	Read(ctx context.Context, bucket, name string) (*models.Blob, error)
}

// RecordStore persists processed documents.
type RecordStore interface {
	// Create writes a new document and fails if its ID is already taken.
	Create(ctx context.Context, doc *models.Document) error

	// Get loads a document by ID.
	Get(ctx context.Context, id string) (*models.Document, error)
}

// Publisher delivers a notification to a single topic.
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// Dispatcher hands a persisted document ID to the second processing stage
// without waiting for it to finish.
type Dispatcher interface {
	Dispatch(ctx context.Context, documentID string) error
}
