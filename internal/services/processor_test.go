package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
	"github.com/Lllllllleong/documentanalytics/internal/extract"
	"github.com/Lllllllleong/documentanalytics/internal/metrics"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/notify"
	"github.com/Lllllllleong/documentanalytics/internal/services"
	mock_services "github.com/Lllllllleong/documentanalytics/internal/services/mocks"
	"github.com/Lllllllleong/documentanalytics/internal/store"
)

type stubDetector string

func (d stubDetector) Detect(string) (string, error) { return string(d), nil }

type processorFixture struct {
	reader     *mock_services.MockBlobReader
	store      *mock_services.MockRecordStore
	publisher  *mock_services.MockPublisher
	dispatcher *mock_services.MockDispatcher
	metrics    *metrics.Pipeline
	now        time.Time
}

func newProcessorFixture(t *testing.T) *processorFixture {
	ctrl := gomock.NewController(t)
	return &processorFixture{
		reader:     mock_services.NewMockBlobReader(ctrl),
		store:      mock_services.NewMockRecordStore(ctrl),
		publisher:  mock_services.NewMockPublisher(ctrl),
		dispatcher: mock_services.NewMockDispatcher(ctrl),
		metrics:    metrics.NewPipeline(prometheus.NewRegistry()),
		now:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (fx *processorFixture) processor(withDispatcher bool, maxBytes int) *services.ProcessorFunction {
	ids := 0
	deps := services.ProcessorDeps{
		Reader:    fx.reader,
		Store:     fx.store,
		Publisher: fx.publisher,
		Analyzer:  analysis.New(stubDetector("en"), 3),
		Metrics:   fx.metrics,
		NewID: func() string {
			ids++
			return fmt.Sprintf("doc-%d", ids)
		},
		Now:                func() time.Time { return fx.now },
		MaxStoredTextBytes: maxBytes,
	}
	if withDispatcher {
		deps.Dispatcher = fx.dispatcher
	}
	return services.NewProcessorWithDeps(deps)
}

func blob(name, content string) *models.Blob {
	return &models.Blob{
		Bucket:       "uploads",
		Name:         name,
		Content:      []byte(content),
		Size:         int64(len(content)),
		LastModified: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestProcessSingleTextRecord(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "notes.txt").
		Return(blob("notes.txt", "the cat sat on the mat the cat ran"), nil)

	var stored *models.Document
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc *models.Document) error {
			stored = doc
			return nil
		})

	var published notify.Message
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg notify.Message) error {
			published = msg
			return nil
		})

	batch := fx.processor(false, 0).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "notes.txt"}},
	})

	require.Len(t, batch.Records, 1)
	res := batch.Records[0]
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, models.StageDone, res.Stage)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.True(t, res.Notified)
	assert.False(t, res.AnalysisTriggered)
	assert.NoError(t, batch.Err())

	require.NotNil(t, stored)
	assert.Equal(t, "doc-1", stored.DocumentID)
	assert.Equal(t, "notes.txt", stored.FileName)
	assert.Equal(t, "uploads", stored.Bucket)
	assert.Equal(t, "text", stored.FileType)
	assert.Equal(t, "the cat sat on the mat the cat ran", stored.Text)
	assert.False(t, stored.TextTruncated)
	assert.Equal(t, "en", stored.Language)
	assert.Equal(t, 9, stored.WordCount)
	assert.Equal(t, 6, stored.UniqueWordCount)
	assert.Equal(t, 1, stored.LineCount)
	assert.Equal(t, []models.WordFrequency{{Word: "the", Count: 3}, {Word: "cat", Count: 2}, {Word: "sat", Count: 1}}, stored.TopWords)
	assert.Equal(t, fx.now, stored.ProcessedAt)
	assert.Equal(t, time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), stored.UploadedAt)

	assert.Equal(t, "Document Analysis Report: notes.txt", published.Subject)
	assert.Contains(t, published.Body, "Word Count: 9")
	assert.Contains(t, published.Body, "\nthe: 3")

	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Records.WithLabelValues(models.StatusSuccess, string(models.StageDone))))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Notify.WithLabelValues("ok")))
}

func TestProcessBatchContinuesAfterFailedRead(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	gomock.InOrder(
		fx.reader.EXPECT().Read(gomock.Any(), "uploads", "a.txt").Return(blob("a.txt", "alpha"), nil),
		fx.reader.EXPECT().Read(gomock.Any(), "uploads", "b.txt").Return(nil, errors.New("object vanished")),
		fx.reader.EXPECT().Read(gomock.Any(), "uploads", "c.txt").Return(blob("c.txt", "gamma"), nil),
	)
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	batch := fx.processor(false, 0).Process(ctx, models.UploadEvent{Records: []models.ObjectRef{
		{Bucket: "uploads", Name: "a.txt"},
		{Bucket: "uploads", Name: "b.txt"},
		{Bucket: "uploads", Name: "c.txt"},
	}})

	require.Len(t, batch.Records, 3)
	assert.Equal(t, models.StatusSuccess, batch.Records[0].Status)
	assert.Equal(t, models.StatusFailed, batch.Records[1].Status)
	assert.Equal(t, models.StageExtracting, batch.Records[1].Stage)
	assert.Contains(t, batch.Records[1].Error, "object vanished")
	assert.Empty(t, batch.Records[1].DocumentID)
	assert.Equal(t, models.StatusSuccess, batch.Records[2].Status)
	assert.Equal(t, 2, batch.Succeeded())

	err := batch.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gs://uploads/b.txt")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Records.WithLabelValues(models.StatusFailed, string(models.StageExtracting))))
}

func TestProcessSameNameTwiceCreatesTwoDocuments(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "report.txt").Return(blob("report.txt", "v1"), nil)
	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "report.txt").Return(blob("report.txt", "v2"), nil)
	var ids []string
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc *models.Document) error {
			ids = append(ids, doc.DocumentID)
			return nil
		}).Times(2)
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	p := fx.processor(false, 0)
	ref := models.ObjectRef{Bucket: "uploads", Name: "report.txt"}
	first := p.Process(ctx, models.UploadEvent{Records: []models.ObjectRef{ref}})
	second := p.Process(ctx, models.UploadEvent{Records: []models.ObjectRef{ref}})

	require.NoError(t, first.Err())
	require.NoError(t, second.Err())
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestProcessDefaultIDsAreUnique(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).Return(blob("x.txt", "x"), nil).Times(2)
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	p := services.NewProcessorWithDeps(services.ProcessorDeps{
		Reader:    fx.reader,
		Store:     fx.store,
		Publisher: fx.publisher,
	})
	ref := models.ObjectRef{Bucket: "uploads", Name: "x.txt"}
	batch := p.Process(ctx, models.UploadEvent{Records: []models.ObjectRef{ref, ref}})

	require.NoError(t, batch.Err())
	assert.Len(t, batch.Records[0].DocumentID, 36)
	assert.NotEqual(t, batch.Records[0].DocumentID, batch.Records[1].DocumentID)
}

func TestProcessPersistFailureIsFatal(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "a.txt").Return(blob("a.txt", "alpha"), nil)
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(store.ErrDocumentExists)

	batch := fx.processor(true, 0).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "a.txt"}},
	})

	res := batch.Records[0]
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.StagePersisting, res.Stage)
	assert.Empty(t, res.DocumentID)
	assert.False(t, res.Notified)
	assert.ErrorIs(t, batch.Err(), store.ErrDocumentExists)
}

func TestProcessPublishFailureIsNotFatal(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "a.txt").Return(blob("a.txt", "alpha"), nil)
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("topic gone"))
	fx.dispatcher.EXPECT().Dispatch(gomock.Any(), "doc-1").Return(nil)

	batch := fx.processor(true, 0).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "a.txt"}},
	})

	res := batch.Records[0]
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, models.StageDone, res.Stage)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.False(t, res.Notified)
	assert.True(t, res.AnalysisTriggered)
	assert.NoError(t, batch.Err())
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Notify.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Dispatch.WithLabelValues("ok")))
}

func TestProcessDispatchFailureIsNotFatal(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "a.txt").Return(blob("a.txt", "alpha"), nil)
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	fx.dispatcher.EXPECT().Dispatch(gomock.Any(), "doc-1").Return(errors.New("quota"))

	batch := fx.processor(true, 0).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "a.txt"}},
	})

	res := batch.Records[0]
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.True(t, res.Notified)
	assert.False(t, res.AnalysisTriggered)
}

func TestProcessInvalidRecord(t *testing.T) {
	fx := newProcessorFixture(t)

	batch := fx.processor(false, 0).Process(context.Background(), models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads"}},
	})

	res := batch.Records[0]
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.StageReceived, res.Stage)
}

func TestProcessEmptyBatch(t *testing.T) {
	fx := newProcessorFixture(t)

	batch := fx.processor(false, 0).Process(context.Background(), models.UploadEvent{})

	assert.Empty(t, batch.Records)
	assert.NoError(t, batch.Err())
}

func TestProcessUnsupportedFileType(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "photo.png").Return(blob("photo.png", "\x89PNG"), nil)
	var stored *models.Document
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc *models.Document) error {
			stored = doc
			return nil
		})
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	batch := fx.processor(false, 0).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "photo.png"}},
	})

	require.NoError(t, batch.Err())
	require.NotNil(t, stored)
	assert.Equal(t, "unsupported", stored.FileType)
	assert.Equal(t, extract.UnsupportedText, stored.Text)
	assert.Equal(t, 0, stored.WordCount)
	assert.Equal(t, analysis.UnknownLanguage, stored.Language)
	assert.Empty(t, stored.TopWords)
}

func TestProcessTruncatesStoredText(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	// "é" is two bytes, so a five byte cap lands inside the third rune.
	content := strings.Repeat("é", 4)
	b := blob("long.txt", content)
	b.Size = 0
	b.LastModified = time.Time{}
	fx.reader.EXPECT().Read(gomock.Any(), "uploads", "long.txt").Return(b, nil)
	var stored *models.Document
	fx.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc *models.Document) error {
			stored = doc
			return nil
		})
	fx.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	batch := fx.processor(false, 5).Process(ctx, models.UploadEvent{
		Records: []models.ObjectRef{{Bucket: "uploads", Name: "long.txt"}},
	})

	require.NoError(t, batch.Err())
	require.NotNil(t, stored)
	assert.Equal(t, "éé", stored.Text)
	assert.True(t, stored.TextTruncated)
	assert.Equal(t, 1, stored.WordCount)
	assert.Equal(t, int64(len(content)), stored.Size)
	assert.Equal(t, fx.now, stored.UploadedAt)
}
