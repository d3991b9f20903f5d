//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/borderflow/internal/domain"
)

type govipsTransformer struct{}

func (t govipsTransformer) Transform(ctx context.Context, input []byte, spec domain.BorderSpec) ([]byte, int, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, 0, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if img.Width() <= 0 || img.Height() <= 0 {
		return nil, 0, 0, fmt.Errorf("source image has invalid dimensions")
	}

	geo := PlanGeometry(img.Width(), img.Height(), spec)
	bg := &vips.Color{R: spec.Color.R, G: spec.Color.G, B: spec.Color.B}

	if err := normalizeGovipsColor(img, bg); err != nil {
		return nil, 0, 0, err
	}
	if err := applyGovipsBorder(img, geo, spec.Width, bg); err != nil {
		return nil, 0, 0, err
	}
	if err := applyGovipsResize(img, geo, bg); err != nil {
		return nil, 0, 0, err
	}

	data, err := exportGovipsJPEG(img, spec.Quality)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, img.Width(), img.Height(), nil
}

// normalizeGovipsColor converts to sRGB and composites any alpha over bg
// before the canvas stages so the embeds only ever see three bands.
func normalizeGovipsColor(img *vips.ImageRef, bg *vips.Color) error {
	if err := img.ToColorSpace(vips.InterpretationSRGB); err != nil {
		return fmt.Errorf("convert to srgb: %w", err)
	}
	if img.HasAlpha() {
		if err := img.Flatten(bg); err != nil {
			return fmt.Errorf("flatten alpha: %w", err)
		}
	}
	return nil
}

func applyGovipsBorder(img *vips.ImageRef, geo Geometry, border int, bg *vips.Color) error {
	if err := img.EmbedBackground(border, border, geo.Bordered.X, geo.Bordered.Y, bg); err != nil {
		return fmt.Errorf("expand border: %w", err)
	}

	if geo.Square != geo.Bordered {
		off := geo.SquareOffset()
		if err := img.EmbedBackground(off.X, off.Y, geo.Square.X, geo.Square.Y, bg); err != nil {
			return fmt.Errorf("fit square canvas: %w", err)
		}
	}

	if geo.Canvas != geo.Square {
		off := geo.CanvasOffset()
		if err := img.EmbedBackground(off.X, off.Y, geo.Canvas.X, geo.Canvas.Y, bg); err != nil {
			return fmt.Errorf("fit aspect canvas: %w", err)
		}
	}
	return nil
}

func applyGovipsResize(img *vips.ImageRef, geo Geometry, bg *vips.Color) error {
	if img.Width() == geo.Output.X && img.Height() == geo.Output.Y {
		return nil
	}

	hscale := float64(geo.Output.X) / float64(img.Width())
	vscale := float64(geo.Output.Y) / float64(img.Height())
	if err := img.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}

	// libvips rounds the scaled size itself; pin it to the planned output.
	if img.Width() != geo.Output.X || img.Height() != geo.Output.Y {
		if err := img.EmbedBackground(0, 0, geo.Output.X, geo.Output.Y, bg); err != nil {
			return fmt.Errorf("pin output size: %w", err)
		}
	}
	return nil
}

func exportGovipsJPEG(img *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewJpegExportParams()
	params.Quality = domain.DefaultJPEGQuality
	if quality > 0 && quality <= 100 {
		params.Quality = quality
	}
	params.OptimizeCoding = true

	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return data, nil
}
