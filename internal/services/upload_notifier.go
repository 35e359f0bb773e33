package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
)

// UploadNotifierFunction announces every uploaded object on the notification topic.
type UploadNotifierFunction struct {
	publisher Publisher
	closers   closers
}

func NewUploadNotifier(ctx context.Context) (*UploadNotifierFunction, error) {
	config, err := LoadUploadNotifierConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	publisher, err := newPublisher(ctx, config.ProjectID, config.NotifierConfig)
	if err != nil {
		return nil, err
	}
	f := NewUploadNotifierWithPublisher(publisher)
	f.closers = closers{publisher}
	return f, nil
}

func NewUploadNotifierWithPublisher(publisher Publisher) *UploadNotifierFunction {
	return &UploadNotifierFunction{publisher: publisher}
}

// Process publishes one message per record. Every record is attempted; the
// publish errors are returned together.
func (f *UploadNotifierFunction) Process(ctx context.Context, event models.UploadEvent) error {
	var result *multierror.Error
	for _, ref := range event.Records {
		logCtx := slog.With("gcsBucket", ref.Bucket, "gcsObject", ref.Name)
		if err := f.publisher.Publish(ctx, notify.FormatUpload(ref.Bucket, ref.Name)); err != nil {
			logCtx.Error("Failed to publish upload notification", "error", err)
			result = multierror.Append(result, fmt.Errorf("notify upload gs://%s/%s: %w", ref.Bucket, ref.Name, err))
			continue
		}
		logCtx.Info("Upload notification published.")
	}
	return result.ErrorOrNil()
}

func (f *UploadNotifierFunction) Close() error {
	return f.closers.Close()
}
