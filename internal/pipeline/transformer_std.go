package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/borderflow/internal/domain"
	"golang.org/x/image/draw"
)

type stdlibTransformer struct{}

func (t stdlibTransformer) Transform(ctx context.Context, input []byte, spec domain.BorderSpec) ([]byte, int, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, 0, ctx.Err()
	default:
	}

	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode source image: %w", err)
	}

	out, err := Render(src, spec)
	if err != nil {
		return nil, 0, 0, err
	}

	data, err := encodeJPEG(out, spec.Quality)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := out.Bounds()
	return data, bounds.Dx(), bounds.Dy(), nil
}

// Render runs every pixel stage on a decoded image and returns the
// opaque raster that gets encoded.
func Render(src image.Image, spec domain.BorderSpec) (*image.RGBA, error) {
	srcBounds := src.Bounds()
	if srcBounds.Dx() == 0 || srcBounds.Dy() == 0 {
		return nil, errors.New("source image has invalid dimensions")
	}

	geo := PlanGeometry(srcBounds.Dx(), srcBounds.Dy(), spec)
	fill := spec.Color.ToRGBA()

	bordered := ExpandBorder(src, spec.Width, fill)

	square := bordered
	if geo.Square != geo.Bordered {
		square = pasteOnto(newCanvas(geo.Square, fill), bordered, geo.SquareOffset())
	}

	canvas := square
	if geo.Canvas != geo.Square {
		canvas = pasteOnto(newCanvas(geo.Canvas, fill), square, geo.CanvasOffset())
	}

	resized := resizeTo(canvas, geo.Output)
	return flattenRGB(resized, fill), nil
}

// ExpandBorder pads src by border pixels on every side. Transparent source
// pixels are composited over the border color.
func ExpandBorder(src image.Image, border int, fill color.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := newCanvas(image.Pt(b.Dx()+2*border, b.Dy()+2*border), fill)
	at := image.Rect(border, border, border+b.Dx(), border+b.Dy())
	draw.Draw(dst, at, src, b.Min, draw.Over)
	return dst
}

func newCanvas(size image.Point, fill color.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return dst
}

// pasteOnto copies src into dst at offset; parts falling outside dst are clipped.
func pasteOnto(dst *image.RGBA, src *image.RGBA, offset image.Point) *image.RGBA {
	r := image.Rectangle{Min: offset, Max: offset.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
	return dst
}

func resizeTo(src *image.RGBA, size image.Point) image.Image {
	if src.Bounds().Size() == size {
		return src
	}
	return imaging.Resize(src, size.X, size.Y, imaging.Lanczos)
}

// flattenRGB drops any remaining alpha so the JPEG encoder sees opaque pixels.
func flattenRGB(src image.Image, fill color.RGBA) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Opaque() {
		return rgba
	}
	dst := newCanvas(src.Bounds().Size(), fill)
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = domain.DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
