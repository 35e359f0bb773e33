package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/documentanalytics/internal/logger"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/services"
)

var (
	notifierInstance *services.UploadNotifierFunction
	once             sync.Once
	initErr          error
)

func init() {
	logger.Init("upload-notifier")
	functions.CloudEvent("NotifyUpload", notifyUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func notifyUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		notifierInstance, initErr = services.NewUploadNotifier(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return notifierInstance.Process(ctx, models.UploadEventFromGCS(gcsEvent))
}
