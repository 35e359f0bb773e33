package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/Lllllllleong/documentanalytics/internal/gcp"
	"github.com/Lllllllleong/documentanalytics/internal/logger"
	"github.com/Lllllllleong/documentanalytics/internal/metrics"
	"github.com/Lllllllleong/documentanalytics/internal/models"
	"github.com/Lllllllleong/documentanalytics/internal/services"
)

var appName = "docanalytics-backfill"

type objectLister interface {
	List(ctx context.Context, bucket, prefix string, limit int) ([]models.ObjectRef, error)
}

type batchProcessor interface {
	Process(ctx context.Context, event models.UploadEvent) *models.BatchResult
}

func main() {
	logger.Init(appName)

	if err := configureApp(os.Stdout).Run(os.Args); err != nil {
		slog.Error("backfill failed", "error", err)
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "re-run already uploaded objects through the document pipeline"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     "bucket",
			EnvVars:  []string{"BACKFILL_BUCKET"},
			Usage:    "bucket holding the uploaded objects",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "only process objects whose name starts with this prefix",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "maximum number of objects to process (0 means no limit)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "list the objects that would be processed without processing them",
		},
	}
	app.Action = func(appCtx *cli.Context) error {
		ctx, stop := signal.NotifyContext(appCtx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return execute(ctx, appCtx, out)
	}

	return app
}

func execute(ctx context.Context, appCtx *cli.Context, out io.Writer) error {
	reader, err := gcp.NewGCSReader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	if appCtx.Bool("dry-run") {
		return run(ctx, out, reader, nil, appCtx.String("bucket"), appCtx.String("prefix"), appCtx.Int("limit"))
	}

	processor, err := services.NewProcessor(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = processor.Close() }()

	runErr := run(ctx, out, reader, processor, appCtx.String("bucket"), appCtx.String("prefix"), appCtx.Int("limit"))

	// Final pipeline counters go to stderr so stdout stays one record per line.
	if err := metrics.WriteText(os.Stderr, prometheus.DefaultGatherer); err != nil {
		slog.Warn("Failed to write metrics.", "error", err)
	}
	return runErr
}

// run lists the matching objects and, unless processor is nil, processes
// them as one batch. Every record is written to out as a JSON line.
func run(ctx context.Context, out io.Writer, lister objectLister, processor batchProcessor, bucket, prefix string, limit int) error {
	refs, err := lister.List(ctx, bucket, prefix, limit)
	if err != nil {
		return fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
	}
	slog.Info("Objects selected for backfill.", "bucket", bucket, "prefix", prefix, "count", len(refs))

	enc := json.NewEncoder(out)
	if processor == nil {
		for _, ref := range refs {
			if err := enc.Encode(ref); err != nil {
				return err
			}
		}
		return nil
	}

	batch := processor.Process(ctx, models.UploadEvent{Records: refs})
	for _, res := range batch.Records {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return batch.Err()
}
