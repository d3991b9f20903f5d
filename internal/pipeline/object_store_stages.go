package pipeline

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/dunamismax/borderflow/internal/domain"
)

const contentTypeJPEG = "image/jpeg"

type objectWriter interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
}

// ObjectStoreEmitter uploads outputs under Prefix using the local output name.
type ObjectStoreEmitter struct {
	Storage objectWriter
	Prefix  string
}

func (e ObjectStoreEmitter) Emit(ctx context.Context, job domain.Job, data []byte, width, height int) (Output, error) {
	if e.Storage == nil {
		return Output{}, errors.New("storage client is required")
	}

	name := sanitizePathToken(filepath.Base(job.OutputPath))
	objectKey := path.Join(defaultOutputPrefix(e.Prefix), name)

	// Content is always JPEG regardless of the file extension.
	if err := e.Storage.WriteObject(ctx, objectKey, data, contentTypeJPEG); err != nil {
		return Output{}, err
	}

	return Output{
		Name:      name,
		MirrorKey: objectKey,
		Bytes:     len(data),
		Width:     width,
		Height:    height,
	}, nil
}

func defaultOutputPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "borderflow"
	}
	return prefix
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
