package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
	"github.com/Lllllllleong/documentanalytics/internal/extract"
	"github.com/Lllllllleong/documentanalytics/internal/gcp"
	"github.com/Lllllllleong/documentanalytics/internal/metrics"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
)

// ProcessorDeps are the collaborators of a ProcessorFunction. Dispatcher,
// Metrics, NewID and Now are optional.
type ProcessorDeps struct {
	Reader     BlobReader
	Store      RecordStore
	Publisher  Publisher
	Dispatcher Dispatcher
	Analyzer   *analysis.Analyzer
	Metrics    *metrics.Pipeline
	NewID      func() string
	Now        func() time.Time

	// MaxStoredTextBytes bounds the text kept on the stored document.
	MaxStoredTextBytes int
}

// ProcessorFunction runs extract, analyze, persist and notify for every
// record of an upload event.
type ProcessorFunction struct {
	deps    ProcessorDeps
	closers closers
}

// NewProcessor builds a ProcessorFunction from the environment.
func NewProcessor(ctx context.Context) (*ProcessorFunction, error) {
	config, err := LoadProcessorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var cs closers
	fail := func(err error) (*ProcessorFunction, error) {
		_ = cs.Close()
		return nil, err
	}

	reader, err := gcp.NewGCSReader(ctx)
	if err != nil {
		return fail(err)
	}
	cs = append(cs, reader)

	recordStore, err := newRecordStore(ctx, config.ProjectID, config.StoreConfig)
	if err != nil {
		return fail(err)
	}
	cs = append(cs, recordStore)

	publisher, err := newPublisher(ctx, config.ProjectID, config.NotifierConfig)
	if err != nil {
		return fail(err)
	}
	cs = append(cs, publisher)

	deps := ProcessorDeps{
		Reader:             reader,
		Store:              recordStore,
		Publisher:          publisher,
		Analyzer:           analysis.New(analysis.DefaultDetector(), config.TopK),
		Metrics:            metrics.NewPipeline(prometheus.DefaultRegisterer),
		MaxStoredTextBytes: config.MaxStoredTextBytes,
	}

	if config.WorkflowID != "" {
		dispatcher, err := gcp.NewWorkflowDispatcher(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return fail(err)
		}
		cs = append(cs, dispatcher)
		deps.Dispatcher = dispatcher
	}

	f := NewProcessorWithDeps(deps)
	f.closers = cs
	slog.Info("Document processor initialized.",
		"recordStore", config.RecordStore,
		"notifier", config.NotifierBackend,
		"workflowId", config.WorkflowID,
	)
	return f, nil
}

// NewProcessorWithDeps builds a ProcessorFunction around explicit collaborators.
func NewProcessorWithDeps(deps ProcessorDeps) *ProcessorFunction {
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.New(nil, analysis.DefaultTopK)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewPipeline(nil)
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxStoredTextBytes <= 0 {
		deps.MaxStoredTextBytes = defaultMaxStoredTextBytes
	}
	return &ProcessorFunction{deps: deps}
}

// Process handles the records of event in order. A failing record never
// stops the records after it; its error is reported in the batch result.
func (f *ProcessorFunction) Process(ctx context.Context, event models.UploadEvent) *models.BatchResult {
	slog.Info("Processing upload event.", "recordCount", len(event.Records))

	batch := &models.BatchResult{Records: make([]*models.RecordResult, 0, len(event.Records))}
	for _, ref := range event.Records {
		res := f.processRecord(ctx, ref)
		f.deps.Metrics.Records.WithLabelValues(res.Status, string(res.Stage)).Inc()
		batch.Records = append(batch.Records, res)
	}

	slog.Info("Upload event processed.", "succeeded", batch.Succeeded(), "total", len(batch.Records))
	return batch
}

func (f *ProcessorFunction) processRecord(ctx context.Context, ref models.ObjectRef) *models.RecordResult {
	res := &models.RecordResult{Bucket: ref.Bucket, Name: ref.Name, Stage: models.StageReceived}
	logCtx := slog.With("gcsBucket", ref.Bucket, "gcsObject", ref.Name)
	logCtx.Info("Processing uploaded object.")

	if ref.Bucket == "" || ref.Name == "" {
		return f.fail(logCtx, res, models.StageReceived, "Invalid upload record", fmt.Errorf("record must name a bucket and an object"))
	}

	res.Stage = models.StageExtracting
	blob, err := f.deps.Reader.Read(ctx, ref.Bucket, ref.Name)
	if err != nil {
		return f.fail(logCtx, res, models.StageExtracting, "Failed to read uploaded object", err)
	}
	extracted := extract.Extract(ref.Name, blob.Content)
	logCtx.Info("Text extracted.", "fileType", extracted.Kind.String(), "textBytes", len(extracted.Text))

	res.Stage = models.StageAnalyzing
	analyzed := f.deps.Analyzer.Analyze(analyzableText(extracted))

	res.Stage = models.StagePersisting
	doc := f.buildDocument(ref, blob, extracted, analyzed)
	if err := f.deps.Store.Create(ctx, doc); err != nil {
		return f.fail(logCtx, res, models.StagePersisting, "Failed to persist document", err)
	}
	res.DocumentID = doc.DocumentID
	logCtx = logCtx.With("documentId", doc.DocumentID)
	logCtx.Info("Document persisted.", "language", analyzed.Language, "wordCount", analyzed.WordCount)

	res.Stage = models.StageNotifying
	f.handOff(ctx, logCtx, res, notify.Format(ref.Name, analyzed))

	res.Stage = models.StageDone
	res.Status = models.StatusSuccess
	return res
}

// handOff publishes the report and, when configured, starts the second
// stage. Both run concurrently and neither failure fails the record, since
// the document is already stored.
func (f *ProcessorFunction) handOff(ctx context.Context, logCtx *slog.Logger, res *models.RecordResult, msg notify.Message) {
	var g errgroup.Group

	g.Go(func() error {
		err := f.deps.Publisher.Publish(ctx, msg)
		f.deps.Metrics.Notify.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			logCtx.Error("Failed to publish notification", "error", err)
			return nil
		}
		res.Notified = true
		return nil
	})

	if f.deps.Dispatcher != nil {
		documentID := res.DocumentID
		g.Go(func() error {
			err := f.deps.Dispatcher.Dispatch(ctx, documentID)
			f.deps.Metrics.Dispatch.WithLabelValues(metrics.Outcome(err)).Inc()
			if err != nil {
				logCtx.Error("Failed to trigger second stage analysis", "error", err)
				return nil
			}
			res.AnalysisTriggered = true
			return nil
		})
	}

	_ = g.Wait()
}

func (f *ProcessorFunction) fail(logCtx *slog.Logger, res *models.RecordResult, stage models.Stage, message string, err error) *models.RecordResult {
	logCtx.Error(message, "stage", string(stage), "error", err)
	res.Fail(stage, fmt.Errorf("%s: %w", message, err))
	return res
}

func (f *ProcessorFunction) buildDocument(ref models.ObjectRef, blob *models.Blob, extracted extract.Result, analyzed analysis.Result) *models.Document {
	now := f.deps.Now().UTC()
	uploadedAt := blob.LastModified
	if uploadedAt.IsZero() {
		uploadedAt = now
	}
	size := blob.Size
	if size <= 0 {
		size = int64(len(blob.Content))
	}
	text, truncated := truncateText(extracted.Text, f.deps.MaxStoredTextBytes)

	topWords := make([]models.WordFrequency, 0, len(analyzed.TopWords))
	for _, wf := range analyzed.TopWords {
		topWords = append(topWords, models.WordFrequency{Word: wf.Word, Count: wf.Count})
	}

	return &models.Document{
		DocumentID:      f.deps.NewID(),
		FileName:        ref.Name,
		Bucket:          ref.Bucket,
		FileType:        extracted.Kind.String(),
		Text:            text,
		TextTruncated:   truncated,
		Size:            size,
		PageCount:       extracted.PageCount,
		UploadedAt:      uploadedAt.UTC(),
		ProcessedAt:     now,
		Language:        analyzed.Language,
		WordCount:       analyzed.WordCount,
		UniqueWordCount: analyzed.UniqueWordCount,
		LineCount:       analyzed.LineCount,
		TopWords:        topWords,
	}
}

func (f *ProcessorFunction) Close() error {
	return f.closers.Close()
}

// analyzableText keeps the unsupported-type placeholder out of the statistics.
func analyzableText(res extract.Result) string {
	if res.Kind == extract.KindUnsupported {
		return ""
	}
	return res.Text
}

// truncateText cuts s to at most max bytes on a rune boundary.
func truncateText(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
