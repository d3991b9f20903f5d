package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/borderflow/internal/batch"
	"github.com/dunamismax/borderflow/internal/config"
	"github.com/dunamismax/borderflow/internal/pipeline"
	"github.com/dunamismax/borderflow/internal/storage"
	"github.com/dunamismax/borderflow/internal/telemetry"
	"github.com/dunamismax/borderflow/internal/webhook"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.New(os.Stdout, "[borderflow] ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("configuration error: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Printf("tracing setup failed: %v", err)
		return 2
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := pipeline.Startup(); err != nil {
		logger.Printf("image backend startup failed: %v", err)
		return 1
	}
	defer pipeline.Shutdown()

	processor, err := pipeline.NewLocalProcessor(cfg.Border)
	if err != nil {
		logger.Printf("initialize pipeline processor: %v", err)
		return 2
	}

	if cfg.Mirror.Enabled() {
		storageClient, err := storage.NewClient(cfg.Mirror.Storage)
		if err != nil {
			logger.Printf("initialize storage client: %v", err)
			return 2
		}
		if err := storageClient.EnsureBucket(ctx); err != nil {
			logger.Printf("ensure bucket: %v", err)
			return 1
		}
		processor.WithMirror(pipeline.ObjectStoreEmitter{Storage: storageClient, Prefix: cfg.Mirror.Prefix})
		logger.Printf("mirroring outputs bucket=%s prefix=%s", storageClient.Bucket(), cfg.Mirror.Prefix)
	}

	logger.Printf(
		"starting backend=%s input=%s output=%s border=%d color=%s aspect=%s width=%d quality=%d",
		pipeline.Backend,
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.Border.Width,
		cfg.Border.Color,
		cfg.Border.Aspect,
		cfg.Border.OutputWidth,
		cfg.Border.Quality,
	)

	runner := batch.NewRunner(logger, batch.Config{
		InputDir:    cfg.Paths.InputDir,
		OutputDir:   cfg.Paths.OutputDir,
		Suffix:      cfg.Paths.Suffix,
		ForceJPGExt: cfg.Paths.ForceJPGExt,
	}, processor)

	summary, runErr := runner.Run(ctx)

	if cfg.Metrics.TextfilePath != "" {
		if err := runner.WriteMetrics(cfg.Metrics.TextfilePath); err != nil {
			logger.Printf("metrics write failed path=%s err=%v", cfg.Metrics.TextfilePath, err)
		}
	}

	if runErr == nil {
		notifyBatchCompleted(ctx, logger, webhook.NewClient(cfg.Webhook), cfg, summary)
	}

	switch {
	case errors.Is(runErr, batch.ErrInputDirMissing), errors.Is(runErr, batch.ErrNoImages):
		return 0
	case runErr != nil:
		logger.Printf("batch failed: %v", runErr)
		return 1
	case len(summary.Failures) > 0:
		return 1
	}
	return 0
}

func notifyBatchCompleted(ctx context.Context, logger *log.Logger, client *webhook.Client, cfg config.Config, summary batch.Summary) {
	if !client.Enabled() {
		return
	}

	failed := make([]map[string]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		failed = append(failed, map[string]string{"name": f.Name, "error": f.Err.Error()})
	}

	err := client.Send(ctx, webhook.EventBatchCompleted, map[string]any{
		"input_dir":    cfg.Paths.InputDir,
		"output_dir":   cfg.Paths.OutputDir,
		"found":        summary.Found,
		"processed":    summary.Processed,
		"failed":       failed,
		"duration_ms":  summary.Duration.Milliseconds(),
		"completed_at": time.Now().UTC(),
	})
	if err != nil {
		logger.Printf("webhook delivery failed event=%s err=%v", webhook.EventBatchCompleted, err)
	}
}
