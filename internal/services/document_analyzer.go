package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
)

// ErrMissingDocumentID is returned for requests that do not name a document.
var ErrMissingDocumentID = errors.New("documentId is required")

// AnalyzerFunction re-analyzes a stored document and publishes its report.
// The stored record is only read.
type AnalyzerFunction struct {
	store     RecordStore
	publisher Publisher
	analyzer  *analysis.Analyzer
	closers   closers
}

// NewDocumentAnalyzer creates a new AnalyzerFunction from the environment.
func NewDocumentAnalyzer(ctx context.Context) (*AnalyzerFunction, error) {
	config, err := LoadAnalyzerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	recordStore, err := newRecordStore(ctx, config.ProjectID, config.StoreConfig)
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher(ctx, config.ProjectID, config.NotifierConfig)
	if err != nil {
		_ = recordStore.Close()
		return nil, err
	}

	f := NewDocumentAnalyzerWithDeps(recordStore, publisher, analysis.New(analysis.DefaultDetector(), config.TopK))
	f.closers = closers{recordStore, publisher}
	return f, nil
}

// NewDocumentAnalyzerWithDeps builds an AnalyzerFunction around explicit
// collaborators.
func NewDocumentAnalyzerWithDeps(recordStore RecordStore, publisher Publisher, analyzer *analysis.Analyzer) *AnalyzerFunction {
	if analyzer == nil {
		analyzer = analysis.New(nil, 5)
	}
	return &AnalyzerFunction{
		store:     recordStore,
		publisher: publisher,
		analyzer:  analyzer,
	}
}

// Process loads the document named by req, analyzes its stored text and
// publishes the report.
func (f *AnalyzerFunction) Process(ctx context.Context, req *models.AnalyzerRequest) (*models.AnalyzerResponse, error) {
	if req == nil || req.DocumentID == "" {
		return nil, ErrMissingDocumentID
	}
	logCtx := slog.With("documentId", req.DocumentID)
	logCtx.Info("Starting document analysis.")

	doc, err := f.store.Get(ctx, req.DocumentID)
	if err != nil {
		logCtx.Error("Failed to load document", "error", err)
		return nil, fmt.Errorf("failed to load document %s: %w", req.DocumentID, err)
	}

	res := f.analyzer.Analyze(doc.Text)

	if err := f.publisher.Publish(ctx, notify.Format(doc.FileName, res)); err != nil {
		logCtx.Error("Failed to publish analysis report", "error", err)
		return nil, fmt.Errorf("failed to publish analysis report: %w", err)
	}

	logCtx.Info("Document analysis complete.", "language", res.Language, "wordCount", res.WordCount)
	return &models.AnalyzerResponse{
		Status:     "analyzed",
		DocumentID: doc.DocumentID,
		Language:   res.Language,
		WordCount:  res.WordCount,
		Notified:   true,
	}, nil
}

func (f *AnalyzerFunction) Close() error {
	return f.closers.Close()
}
