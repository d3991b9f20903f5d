package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dunamismax/borderflow/internal/domain"
	"github.com/dunamismax/borderflow/internal/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInputDirMissing = errors.New("input directory does not exist")
	ErrNoImages        = errors.New("no images found")
)

const (
	statusProcessed = "processed"
	statusFailed    = "failed"
)

type Config struct {
	InputDir    string
	OutputDir   string
	Suffix      string
	ForceJPGExt bool
}

type Failure struct {
	Name string
	Err  error
}

type Summary struct {
	Found     int
	Processed int
	Failures  []Failure
	Outputs   []pipeline.Output
	Duration  time.Duration
}

type imageProcessor interface {
	Process(ctx context.Context, job domain.Job) (pipeline.Output, error)
}

// Runner walks the input directory once and feeds each image to the
// processor, one at a time, in directory listing order.
type Runner struct {
	logger    *log.Logger
	cfg       Config
	processor imageProcessor
	metrics   *metrics
	tracer    trace.Tracer
}

func NewRunner(logger *log.Logger, cfg Config, processor imageProcessor) *Runner {
	if cfg.Suffix == "" {
		cfg.Suffix = domain.DefaultOutputSuffix
	}
	return &Runner{
		logger:    logger,
		cfg:       cfg,
		processor: processor,
		metrics:   newMetrics(),
		tracer:    otel.Tracer("borderflow/batch"),
	}
}

// Run processes every supported image. A missing input directory and an
// empty one are reported and returned as ErrInputDirMissing / ErrNoImages.
// Per-image failures are logged and collected in the summary; they do not
// stop the batch.
func (r *Runner) Run(ctx context.Context) (summary Summary, err error) {
	startedAt := time.Now()
	ctx, span := r.tracer.Start(ctx, "batch.run")
	defer span.End()

	defer func() {
		summary.Duration = time.Since(startedAt)
		r.metrics.runDuration.Set(summary.Duration.Seconds())
		r.metrics.lastRunTimestamp.SetToCurrentTime()
	}()

	if err = checkInputDir(r.cfg.InputDir); err != nil {
		if errors.Is(err, ErrInputDirMissing) {
			r.logger.Printf("input folder %q does not exist", r.cfg.InputDir)
		}
		span.SetStatus(codes.Error, "input directory unavailable")
		return summary, err
	}

	if err = os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		span.RecordError(err)
		return summary, fmt.Errorf("create output dir: %w", err)
	}

	jobs, err := Scan(r.cfg)
	if err != nil {
		span.RecordError(err)
		return summary, err
	}
	summary.Found = len(jobs)
	span.SetAttributes(attribute.Int("batch.images_found", len(jobs)))

	if len(jobs) == 0 {
		r.logger.Printf("no images found in input folder %q", r.cfg.InputDir)
		return summary, ErrNoImages
	}

	for _, job := range jobs {
		if err = ctx.Err(); err != nil {
			r.logger.Printf("batch interrupted processed=%d remaining=%d", summary.Processed, len(jobs)-summary.Processed-len(summary.Failures))
			span.SetStatus(codes.Error, "interrupted")
			return summary, err
		}

		out, jobErr := r.processOne(ctx, job)
		if jobErr != nil {
			r.logger.Printf("failed name=%s err=%v", job.Name, jobErr)
			summary.Failures = append(summary.Failures, Failure{Name: job.Name, Err: jobErr})
			continue
		}

		r.logger.Printf("processed name=%s output=%s width=%d height=%d bytes=%d", job.Name, out.Name, out.Width, out.Height, out.Bytes)
		summary.Processed++
		summary.Outputs = append(summary.Outputs, out)
	}

	r.logger.Printf("Processed %d images.", summary.Processed)
	if len(summary.Failures) > 0 {
		r.logger.Printf("failed %d images", len(summary.Failures))
		span.SetStatus(codes.Error, "some images failed")
	} else {
		span.SetStatus(codes.Ok, "processed")
	}
	span.SetAttributes(
		attribute.Int("batch.images_processed", summary.Processed),
		attribute.Int("batch.images_failed", len(summary.Failures)),
	)
	return summary, nil
}

func (r *Runner) processOne(ctx context.Context, job domain.Job) (pipeline.Output, error) {
	startedAt := time.Now()
	status := statusFailed

	ctx, span := r.tracer.Start(ctx, "batch.process_image")
	span.SetAttributes(
		attribute.String("image.name", job.Name),
		attribute.String("image.output_path", job.OutputPath),
	)
	defer span.End()
	defer func() {
		r.metrics.imageDuration.WithLabelValues(status).Observe(time.Since(startedAt).Seconds())
		r.metrics.imagesTotal.WithLabelValues(status).Inc()
	}()

	out, err := r.processor.Process(ctx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "image failed")
		return pipeline.Output{}, err
	}

	status = statusProcessed
	span.SetAttributes(
		attribute.Int("image.width", out.Width),
		attribute.Int("image.height", out.Height),
		attribute.Int("image.bytes", out.Bytes),
	)
	span.SetStatus(codes.Ok, "processed")
	r.metrics.sourceBytesTotal.Add(float64(out.SourceBytes))
	r.metrics.outputBytesTotal.Add(float64(out.Bytes))
	r.metrics.pixelsWrittenTotal.Add(float64(out.Width * out.Height))
	return out, nil
}

// Scan lists supported images in cfg.InputDir, sorted by name, and derives
// each output path. Subdirectories are not descended into.
func Scan(cfg Config) ([]domain.Job, error) {
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	suffix := cfg.Suffix
	if suffix == "" {
		suffix = domain.DefaultOutputSuffix
	}

	jobs := make([]domain.Job, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !domain.IsSupportedImage(entry.Name()) {
			continue
		}
		jobs = append(jobs, domain.Job{
			Name:       entry.Name(),
			InputPath:  filepath.Join(cfg.InputDir, entry.Name()),
			OutputPath: filepath.Join(cfg.OutputDir, domain.OutputName(entry.Name(), suffix, cfg.ForceJPGExt)),
		})
	}
	return jobs, nil
}

func checkInputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputDirMissing, dir)
		}
		return fmt.Errorf("stat input dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInputDirMissing, dir)
	}
	return nil
}
