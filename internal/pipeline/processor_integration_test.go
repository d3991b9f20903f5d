package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunamismax/borderflow/internal/domain"
)

func TestLocalProcessor_FileInTransformFileOut(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "Input", "beach.png")
	outputPath := filepath.Join(tmp, "Done", "beach_BORDER.png")

	if err := os.MkdirAll(filepath.Dir(inputPath), 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}
	if err := os.WriteFile(inputPath, buildTestPNG(t, 800, 600), 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(domain.DefaultBorderSpec())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	out, err := processor.Process(context.Background(), domain.Job{
		Name:       "beach.png",
		InputPath:  inputPath,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("process job: %v", err)
	}

	if out.Path != outputPath {
		t.Fatalf("expected output path %s, got %s", outputPath, out.Path)
	}
	if out.Width != 1080 || out.Height != 1350 {
		t.Fatalf("expected 1080x1350, got %dx%d", out.Width, out.Height)
	}
	if out.SourceBytes == 0 || out.Bytes == 0 {
		t.Fatalf("expected byte counts to be recorded, got %+v", out)
	}

	verifyJPEG(t, outputPath, 1080, 1350)
}

func TestLocalProcessor_RerunIsDeterministic(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "in.png")
	outputPath := filepath.Join(tmp, "out", "in_BORDER.png")
	if err := os.WriteFile(inputPath, buildTestPNG(t, 120, 90), 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(domain.DefaultBorderSpec())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}
	job := domain.Job{Name: "in.png", InputPath: inputPath, OutputPath: outputPath}

	if _, err := processor.Process(context.Background(), job); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}

	if _, err := processor.Process(context.Background(), job); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read second output: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("expected re-run to overwrite with identical bytes")
	}
}

func TestLocalProcessor_MissingInput(t *testing.T) {
	processor, err := NewLocalProcessor(domain.DefaultBorderSpec())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	tmp := t.TempDir()
	_, err = processor.Process(context.Background(), domain.Job{
		Name:       "ghost.png",
		InputPath:  filepath.Join(tmp, "ghost.png"),
		OutputPath: filepath.Join(tmp, "ghost_BORDER.png"),
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestNewLocalProcessorRejectsInvalidSpec(t *testing.T) {
	spec := domain.DefaultBorderSpec()
	spec.OutputWidth = 0
	if _, err := NewLocalProcessor(spec); err == nil {
		t.Fatal("expected invalid spec error")
	}
}

func TestProcessorMirrorsToObjectStore(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "pic.jpg")
	outputPath := filepath.Join(tmp, "Done", "pic_BORDER.jpg")
	if err := os.WriteFile(inputPath, buildTestPNG(t, 40, 40), 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(domain.DefaultBorderSpec())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}
	writer := &captureObjectWriter{}
	processor.WithMirror(ObjectStoreEmitter{Storage: writer, Prefix: "/runs/2024/"})

	out, err := processor.Process(context.Background(), domain.Job{
		Name:       "pic.jpg",
		InputPath:  inputPath,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("process job: %v", err)
	}

	if writer.key != "runs/2024/pic_BORDER.jpg" {
		t.Fatalf("unexpected object key %q", writer.key)
	}
	if writer.contentType != "image/jpeg" {
		t.Fatalf("unexpected content type %q", writer.contentType)
	}
	if out.MirrorKey != writer.key {
		t.Fatalf("expected mirror key %q, got %q", writer.key, out.MirrorKey)
	}

	local, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read local output: %v", err)
	}
	if !bytes.Equal(local, writer.data) {
		t.Fatal("expected mirrored bytes to match local output")
	}
}

func TestProcessorMirrorFailureIsReported(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "pic.png")
	if err := os.WriteFile(inputPath, buildTestPNG(t, 10, 10), 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(domain.DefaultBorderSpec())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}
	writer := &captureObjectWriter{err: errors.New("bucket unavailable")}
	processor.WithMirror(ObjectStoreEmitter{Storage: writer})

	_, err = processor.Process(context.Background(), domain.Job{
		Name:       "pic.png",
		InputPath:  inputPath,
		OutputPath: filepath.Join(tmp, "pic_BORDER.png"),
	})
	if err == nil || !errors.Is(err, writer.err) {
		t.Fatalf("expected mirror error, got %v", err)
	}
	if writer.key != "borderflow/pic_BORDER.png" {
		t.Fatalf("expected default prefix key, got %q", writer.key)
	}
}

type captureObjectWriter struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (w *captureObjectWriter) WriteObject(_ context.Context, objectKey string, data []byte, contentType string) error {
	w.key = objectKey
	w.contentType = contentType
	w.data = append([]byte(nil), data...)
	return w.err
}

func buildTestPNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func verifyJPEG(t *testing.T, path string, wantW, wantH int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open image %s: %v", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode image %s: %v", path, err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg content in %s, got %s", path, format)
	}
	if cfg.Width != wantW || cfg.Height != wantH {
		t.Fatalf("expected %dx%d, got %dx%d", wantW, wantH, cfg.Width, cfg.Height)
	}
}
