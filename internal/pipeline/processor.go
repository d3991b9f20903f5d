package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunamismax/borderflow/internal/domain"
)

type Output struct {
	Name        string
	Path        string
	MirrorKey   string
	SourceBytes int
	Bytes       int
	Width       int
	Height      int
}

type Fetcher interface {
	Fetch(ctx context.Context, job domain.Job) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, job domain.Job, data []byte, width, height int) (Output, error)
}

type Processor struct {
	spec        domain.BorderSpec
	fetcher     Fetcher
	transformer Transformer
	emitter     Emitter
}

func NewLocalProcessor(spec domain.BorderSpec) (*Processor, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid border spec: %w", err)
	}

	transformer, err := newTransformer()
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	return &Processor{
		spec:        spec,
		fetcher:     LocalFileFetcher{},
		transformer: transformer,
		emitter:     LocalFileEmitter{},
	}, nil
}

// WithMirror copies every local output to a second emitter after it is written.
func (p *Processor) WithMirror(mirror Emitter) *Processor {
	if mirror == nil {
		return p
	}
	p.emitter = TeeEmitter{Primary: p.emitter, Mirror: mirror}
	return p
}

func (p *Processor) Process(ctx context.Context, job domain.Job) (Output, error) {
	if strings.TrimSpace(job.InputPath) == "" {
		return Output{}, errors.New("input path is required")
	}
	if strings.TrimSpace(job.OutputPath) == "" {
		return Output{}, errors.New("output path is required")
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, job)
	if err != nil {
		return Output{}, fmt.Errorf("fetch stage: %w", err)
	}

	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	default:
	}

	transformed, width, height, err := p.transformer.Transform(ctx, sourceBytes, p.spec)
	if err != nil {
		return Output{}, fmt.Errorf("transform stage name=%s: %w", job.Name, err)
	}

	written, err := p.emitter.Emit(ctx, job, transformed, width, height)
	if err != nil {
		return Output{}, fmt.Errorf("emit stage name=%s: %w", job.Name, err)
	}
	written.SourceBytes = len(sourceBytes)
	return written, nil
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, job domain.Job) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(job.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", job.InputPath, err)
	}
	return data, nil
}

// LocalFileEmitter writes to job.OutputPath, replacing any earlier output.
type LocalFileEmitter struct{}

func (LocalFileEmitter) Emit(_ context.Context, job domain.Job, data []byte, width, height int) (Output, error) {
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(job.OutputPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		Name:   filepath.Base(job.OutputPath),
		Path:   job.OutputPath,
		Bytes:  len(data),
		Width:  width,
		Height: height,
	}, nil
}

type TeeEmitter struct {
	Primary Emitter
	Mirror  Emitter
}

func (e TeeEmitter) Emit(ctx context.Context, job domain.Job, data []byte, width, height int) (Output, error) {
	out, err := e.Primary.Emit(ctx, job, data, width, height)
	if err != nil {
		return Output{}, err
	}

	mirrored, err := e.Mirror.Emit(ctx, job, data, width, height)
	if err != nil {
		return out, fmt.Errorf("mirror output: %w", err)
	}
	out.MirrorKey = mirrored.MirrorKey
	return out, nil
}
