package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/documentanalytics/internal/logger"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/services"
	"github.com/Lllllllleong/documentanalytics/internal/store"
)

var (
	analyzerInstance *services.AnalyzerFunction
	once             sync.Once
	initErr          error
)

func init() {
	logger.Init("document-analyzer")

	// "HandleAnalyzeDocument" is the entry point name configured in GCP.
	functions.HTTP("HandleAnalyzeDocument", handleAnalyzeDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// handleAnalyzeDocument is called by the analysis workflow with a document ID.
func handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		analyzerInstance, initErr = services.NewDocumentAnalyzer(context.Background())
	})
	if initErr != nil {
		slog.Error("Document analyzer initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.AnalyzerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := analyzerInstance.Process(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDocumentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
