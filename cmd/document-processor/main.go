package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lllllllleong/documentanalytics/internal/logger"
	"github.com/Lllllllleong/documentanalytics/internal/metrics"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/services"
)

var (
	processorInstance *services.ProcessorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger.Init("document-processor")

	// "ProcessUpload" is the entry point name configured in GCP.
	functions.CloudEvent("ProcessUpload", processUpload)

	// Pipeline counters of this instance, for scraping.
	functions.HTTP("Metrics", metrics.Handler(prometheus.DefaultGatherer).ServeHTTP)
}

// main is required by the Go Functions Framework.
func main() {}

// processUpload handles a storage finalize event for one uploaded object.
func processUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		processorInstance, initErr = services.NewProcessor(context.Background())
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

	// Failed records are logged inside Process; returning the aggregate
	// marks the invocation as failed.
	batch := processorInstance.Process(ctx, models.UploadEventFromGCS(gcsEvent))
	return batch.Err()
}
